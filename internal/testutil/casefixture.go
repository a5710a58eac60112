// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"testing"
)

// Fixture file contents written by WriteCase.
const (
	ControlDict = `FoamFile
{
    version     2.0;
    format      ascii;
    class       dictionary;
    object      controlDict;
}

application     pisoFoam;
startTime       0;
endTime         1000;
deltaT          1;
writeInterval   100;
`

	FvSchemes = `FoamFile
{
    version     2.0;
    format      ascii;
    class       dictionary;
    object      fvSchemes;
}

ddtSchemes
{
    default         Euler;
}

divSchemes
{
    default         none;
    div(phi,U)      Gauss linear;
}
`

	TransportProperties = `transportModel  Newtonian;

nu              nu [ 0 2 -1 0 0 0 0 ] 0.01;
`

	BlockMeshDict = `convertToMeters 0.1;

nx 20;
ny 20;
`

	VelocityField = `FoamFile
{
    class       volVectorField;
    object      U;
}

dimensions      [0 1 -1 0 0 0 0];

internalField   uniform (0 0 0);

boundaryField
{
    inlet { type fixedValue; value uniform (1 0 0); }
    outlet { type zeroGradient; }
}
`
)

// WriteCase writes a minimal toolkit case under dir and returns dir.
func WriteCase(t testing.TB, dir string) string {
	t.Helper()

	files := map[string]string{
		"system/controlDict":              ControlDict,
		"system/fvSchemes":                FvSchemes,
		"constant/transportProperties":    TransportProperties,
		"constant/polyMesh/blockMeshDict": BlockMeshDict,
		"constant/polyMesh/points":        "(0 0 0)\n",
		"0/U":                             VelocityField,
	}
	for rel, content := range files {
		MustWriteFile(t, filepath.Join(dir, filepath.FromSlash(rel)), content)
	}
	return dir
}
