// SPDX-License-Identifier: MPL-2.0

// Package foamcmd builds the shell command strings used to mutate and drive
// toolkit cases. Every function is pure string templating: values are
// interpolated verbatim and are not shell-escaped, so callers must not pass
// untrusted input.
package foamcmd

import (
	"fmt"
	"strconv"
)

// Case-relative configuration files.
const (
	ControlDict         = "system/controlDict"
	FvSchemes           = "system/fvSchemes"
	TransportProperties = "constant/transportProperties"
	RASProperties       = "constant/RASProperties"
	ChemistryProperties = "constant/chemistryProperties"
	BlockMeshDict       = "constant/polyMesh/blockMeshDict"
	PolyMesh            = "constant/polyMesh"
)

// Default toolkit executables.
const (
	BlockMesh      = "blockMesh"
	DecomposePar   = "decomposePar"
	ReconstructPar = "reconstructPar"
	Sample         = "sample"
	MapFields      = "mapFields"
	Mpirun         = "mpirun"
	PisoFoam       = "pisoFoam"
	SimpleFoam     = "simpleFoam"
)

// LastIterationCmd prints the last "Time = ..." line of a solver log named log.
const LastIterationCmd = `grep "^Time" log | tail -n1`

// Boundary condition templates for SetBoundary. The single %s receives the value.
const (
	UniformFixedValue = "{type fixedValue; value uniform %s;}"
	ZeroGradient      = "{type zeroGradient;%s}"
)

// Subs returns an in-place global sed substitution of pattern by replacement in file.
func Subs(pattern, replacement, file string) string {
	return fmt.Sprintf(`sed -i "s/%s/%s/g" %s`, pattern, replacement, file)
}

// End returns the solver log marker for simulation time t.
func End(t string) string {
	return "Time = " + t
}

// ChangeEndTime sets endTime in the controlDict.
func ChangeEndTime(x string) string {
	return Subs(`endTime[ 0-9.]*`, "endTime "+x, ControlDict)
}

// ChangeUnits rewrites the dimension set (e.g. "0 2 -1 0 0 0 0") in file.
func ChangeUnits(x, file string) string {
	return Subs(`\[\(\(-\| \)*[0-9]*\)*\]`, "["+x+"]", file)
}

// ChangeViscosity sets the kinematic viscosity in transportProperties.
func ChangeViscosity(x string) string {
	return Subs(`nu \[ 0 2 -1 0 0 0 0 \][ 0-9.]*`, "nu [ 0 2 -1 0 0 0 0 ] "+x, TransportProperties)
}

// ChangeDeltaT replaces a unit deltaT in the controlDict.
func ChangeDeltaT(x string) string {
	return Subs(`deltaT[ ]*1`, "deltaT "+x, ControlDict)
}

// RASTurbModel selects the RAS turbulence model.
func RASTurbModel(x string) string {
	return Subs(`RASModel[ A-Za-z]*`, "RASModel "+x, RASProperties)
}

// TurbSwitch toggles turbulence (on/off) in RASProperties.
func TurbSwitch(x string) string {
	return Subs(`turbulence[ A-Za-z]*`, "turbulence "+x, RASProperties)
}

// ChemistrySwitch toggles chemistry (on/off) in chemistryProperties.
func ChemistrySwitch(x string) string {
	return Subs(`chemistry [a-z]*`, "chemistry "+x, ChemistryProperties)
}

// SetUniformInternalField sets a uniform internal field value in file.
func SetUniformInternalField(x, file string) string {
	return Subs(`internalField[ ]*uniform[ 0-9.]*`, "internalField uniform "+x, file)
}

// SetBoundary replaces the definition of patch in field with bcTemplate
// (UniformFixedValue, ZeroGradient, ...) formatted with value.
func SetBoundary(field, patch, bcTemplate, value string) string {
	return Subs(`\(`+patch+`\)[ A-Za-z0-9.;{}]*`, `\1 `+fmt.Sprintf(bcTemplate, value), field)
}

// SetKey replaces "key <anything>;" with "key value;" in file.
func SetKey(key, value, file string) string {
	return Subs(key+`[ A-Za-z0-9.\-]*;`, key+" "+value+";", file)
}

// SetMeshKey is SetKey restricted to the blockMeshDict value alphabet.
func SetMeshKey(key, value string) string {
	return Subs(key+`[ A-Za-z0-9]*;`, key+" "+value+";", BlockMeshDict)
}

// AppendLine appends value as a line to file.
func AppendLine(value, file string) string {
	return fmt.Sprintf("echo '%s' >> %s", value, file)
}

// Redirect sends the output of cmd to log.
func Redirect(cmd, log string) string {
	return cmd + " > " + log
}

// MpirunCmd runs solver on np ranks.
func MpirunCmd(np int, solver string) string {
	return Mpirun + " -np " + strconv.Itoa(np) + " " + solver + " -parallel"
}

// MapFieldsCmd maps fields from source at srcTime onto the case at target.
func MapFieldsCmd(tool, target, srcTime, source string) string {
	return fmt.Sprintf("%s -consistent -case %s -sourceTime %s %s", tool, target, srcTime, source)
}
