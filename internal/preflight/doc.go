// Package preflight provides readiness checks for the directories, sheet,
// and external binaries that matinee depends on.
//
// The "matinee status" command runs RunAll and CheckTools to display overall
// health before a festival staffer commits to a long fetch. Individual checks
// (CheckDirectoryAccess, CheckSheet) are also used by commands that want to
// fail fast instead of partway through a run.
package preflight
