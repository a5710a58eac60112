// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Issue identifiers.
const (
	ToolkitNotSourcedId Id = iota + 1
	CaseNotFoundId
	StudyDefinitionInvalidId
	ConfigLoadFailedId
	ToolNotFoundId
	CommandFailedId
	RuntimeNotAvailableId
)

type (
	// Id identifies a catalog entry.
	//
	//nolint:revive // Id matches the catalog's historical naming
	Id int

	// MarkdownMsg is the body of an issue page.
	MarkdownMsg string

	// HttpLink is a documentation or external URL.
	//
	//nolint:revive // HttpLink matches the catalog's historical naming
	HttpLink string

	// Issue is a catalog page explaining a failure and how to recover.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		extLinks []HttpLink
	}
)

func (i *Issue) Id() Id { return i.id }

func (i *Issue) MarkdownMsg() MarkdownMsg { return i.mdMsg }

func (i *Issue) DocLinks() []HttpLink { return slices.Clone(i.docLinks) }

func (i *Issue) ExtLinks() []HttpLink { return slices.Clone(i.extLinks) }

// Markdown returns the page body followed by its links.
func (i *Issue) Markdown() string {
	var sb strings.Builder
	sb.WriteString(string(i.mdMsg))
	links := append(i.DocLinks(), i.extLinks...)
	if len(links) > 0 {
		sb.WriteString("\n\n## See also\n")
		for _, link := range links {
			sb.WriteString("\n- <" + string(link) + ">")
		}
	}
	return sb.String()
}

// Render renders the page with the glamour style at stylePath ("dark",
// "light", "notty" or a JSON style file).
func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.Markdown(), stylePath)
}

var (
	render = glamour.Render

	toolkitNotSourcedIssue = &Issue{
		id: ToolkitNotSourcedId,
		mdMsg: `
# The simulation toolkit is not sourced

The toolkit version variable is not set, so solver and mesh executables are
most likely missing from your PATH.

## Things you can try
- Source the toolkit environment script, e.g.
~~~
$ source /opt/openfoam/etc/bashrc
~~~
- Or point coriander at a saved environment snapshot in your config:
~~~cue
toolkit: env_file: "~/.config/coriander/toolkit.env"
~~~
- Check which variable coriander looks for with
~~~
$ coriander config show
~~~`,
		extLinks: []HttpLink{"https://www.openfoam.com/documentation/user-guide"},
	}

	caseNotFoundIssue = &Issue{
		id: CaseNotFoundId,
		mdMsg: `
# Case directory not found

The path you gave is missing or is not a directory.

## Things you can try
- List the cases below the current directory:
~~~
$ coriander list
~~~
- Check that the path is relative to the directory you run coriander from.`,
	}

	studyDefinitionInvalidIssue = &Issue{
		id: StudyDefinitionInvalidId,
		mdMsg: `
# Invalid study definition

The study file could not be decoded or is missing required fields.

## Required fields
- ` + "`base`" + `: the case to clone
- ` + "`dir`" + `: where the study cases are created
- ` + "`mutator`" + `: one of setScheme, setKey, setStr, addKey, controlDict, endTime, remesh, run, apply
- ` + "`values`" + `: one case per value

## Example
~~~cue
base:      "cavity"
dir:       "runs/viscosity"
mutator:   "setKey"
param:     "constant/transportProperties"
case_name: "nu"
values: [{nu: 0.01}, {nu: 0.001}]
exec: ["pisoFoam > log"]
~~~

Preview the cases without creating them:
~~~
$ coriander study --dry-run study.cue
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration

## Things you can try
- Check the CUE syntax of your config file.
- Print the effective configuration to compare against:
~~~
$ coriander config show
~~~
- Run with a specific file to isolate the problem:
~~~
$ coriander --config ./config.cue config show
~~~`,
	}

	toolNotFoundIssue = &Issue{
		id: ToolNotFoundId,
		mdMsg: `
# A toolkit executable was not found

The shell reported exit status 127 while running a command in a case.

## Things you can try
- Source the toolkit environment so its executables are on PATH.
- Override the executable names in your config:
~~~cue
tools: {
	block_mesh:    "blockMesh"
	decompose_par: "decomposePar"
}
~~~
- Check what coriander can find:
~~~
$ coriander doctor
~~~`,
	}

	commandFailedIssue = &Issue{
		id: CommandFailedId,
		mdMsg: `
# A case command failed

The command ran but exited with a non-zero status.

## Things you can try
- Re-run with ` + "`--verbose`" + ` to see the command and its working directory.
- Inspect the logs inside the case, e.g. ` + "`.coriander/blockMesh.log`" + `.`,
	}

	runtimeNotAvailableIssue = &Issue{
		id: RuntimeNotAvailableId,
		mdMsg: `
# Runtime not available

The selected runtime cannot run on this system.

## Things you can try
- Use the embedded interpreter, which needs no host shell:
~~~
$ coriander --runtime virtual list
~~~
- Set ` + "`default_runtime`" + ` in your config.`,
	}

	issues = map[Id]*Issue{
		toolkitNotSourcedIssue.Id():      toolkitNotSourcedIssue,
		caseNotFoundIssue.Id():           caseNotFoundIssue,
		studyDefinitionInvalidIssue.Id(): studyDefinitionInvalidIssue,
		configLoadFailedIssue.Id():       configLoadFailedIssue,
		toolNotFoundIssue.Id():           toolNotFoundIssue,
		commandFailedIssue.Id():          commandFailedIssue,
		runtimeNotAvailableIssue.Id():    runtimeNotAvailableIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	values := maps.Values(issues)
	slices.SortFunc(values, func(a, b *Issue) int { return int(a.id - b.id) })
	return values
}

// Get returns the entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
