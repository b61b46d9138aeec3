package sandbox

// wrapperScript is installed verbatim to Paths.SystemDir/wrap at first
// run (and rewritten on every run, per §6). It is a thin shell layer
// over bwrap: it receives the argument list this package builds, which
// already carries every restriction (the fresh session, the unshared
// namespaces and the seccomp filter; see buildArgs), and hands it to
// bwrap unmodified. Keeping it a separate installed
// script (rather than exec'ing bwrap directly from Go) matches §4.6's
// "the core never spawns the build tool directly" boundary: the core
// spawns this wrapper, and only this wrapper spawns bwrap.
const wrapperScript = `#!/bin/sh
# rua sandbox wrapper - regenerated on every run, do not edit by hand.
# Invoked as: wrap <bwrap args...> -- <command...>
set -e
exec bwrap "$@"
`

// seccompPlaceholder stands in for the per-architecture seccomp BPF
// filter, which this module treats as an opaque binary asset (§1 Out
// of scope: "the seccomp BPF binary (consumed as an opaque file)").
// A real deployment ships a compiled filter denying module management,
// reboot, ptrace, keyctl, and similar high-risk syscalls; this module
// never parses or generates BPF bytecode itself.
var seccompPlaceholder = []byte{0x00}
