// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Id identifies a troubleshooting guide.
type Id int

const (
	// NoGuide is the zero Id; errors without a guide carry it.
	NoGuide Id = iota
	MetadataNotFoundId
	ToolNotFoundId
	FixtureConflictId
	TaskNotFoundId
	PrerequisiteCycleId
	ConfigLoadFailedId
	MissingInstancesId
)

type (
	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the guide as terminal Markdown using the given glamour style
// ("dark", "light", "notty", or a path to a JSON style).
func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	metadataNotFoundIssue = &Issue{
		id: MetadataNotFoundId,
		mdMsg: `
# No metadata.json found!

Fixture setup needs the module name, which is read from the ` + "`name`" + `
field of ` + "`metadata.json`" + ` in the working directory.

## Things you can try:
- Run henchman from the root of the Puppet module
- Use ` + "`--chdir`" + ` to point at the module root
- Make sure ` + "`name`" + ` looks like ` + "`author-module`" + ``,
		docLinks: []HttpLink{"https://www.puppet.com/docs/puppet/latest/modules_metadata.html"},
	}

	toolNotFoundIssue = &Issue{
		id: ToolNotFoundId,
		mdMsg: `
# Puppet is not installed!

The installed Puppet version decides whether the future parser may be used,
so a missing or broken ` + "`puppet`" + ` binary stops the whole run.

## Things you can try:
~~~
$ puppet --version
~~~
- Install Puppet, or set ` + "`tools.puppet`" + ` in henchman.cue to its path`,
	}

	fixtureConflictIssue = &Issue{
		id: FixtureConflictId,
		mdMsg: `
# A fixture path is in the way!

henchman manages fixture paths as symlinks. It found a real file or
directory where a symlink was expected and stopped instead of deleting it.

## Things you can try:
- Move the file or directory out of the way and rerun
- Run ` + "`henchman clean`" + ` once the path is gone`,
	}

	taskNotFoundIssue = &Issue{
		id: TaskNotFoundId,
		mdMsg: `
# Task not found!

## Things you can try:
~~~
$ henchman tasks --all
~~~
- Check for typos; namespaces are separated by ` + "`:`" + ``,
	}

	prerequisiteCycleIssue = &Issue{
		id: PrerequisiteCycleId,
		mdMsg: `
# Prerequisite cycle detected!

A task ended up depending on itself through its prerequisites. This is a
wiring mistake in the task table.

## Things you can try:
~~~
$ henchman tasks --graph
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load henchman.cue!

## Things you can try:
- Check the CUE syntax with ` + "`cue vet henchman.cue`" + `
- Print the effective configuration:
~~~
$ henchman config show
~~~`,
	}

	missingInstancesIssue = &Issue{
		id: MissingInstancesId,
		mdMsg: `
# No Test Kitchen instances!

Integration tests need a ` + "`.kitchen.yml`" + ` with at least one suite and one
platform.

## Things you can try:
~~~
$ kitchen list
~~~`,
		docLinks: []HttpLink{"https://kitchen.ci/docs/reference/configuration/"},
	}

	issues = map[Id]*Issue{
		metadataNotFoundIssue.Id():  metadataNotFoundIssue,
		toolNotFoundIssue.Id():      toolNotFoundIssue,
		fixtureConflictIssue.Id():   fixtureConflictIssue,
		taskNotFoundIssue.Id():      taskNotFoundIssue,
		prerequisiteCycleIssue.Id(): prerequisiteCycleIssue,
		configLoadFailedIssue.Id():  configLoadFailedIssue,
		missingInstancesIssue.Id():  missingInstancesIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

// Get returns the guide for id, or nil for NoGuide and unknown ids.
func Get(id Id) *Issue {
	return issues[id]
}
