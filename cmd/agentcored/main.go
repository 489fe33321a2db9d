// Command agentcored boots the hierarchical multi-agent control plane
// described by this module outside of the core library's scope: CLI flags,
// environment/file configuration, and process lifecycle are deliberately
// kept out of the core packages (manager, instance, creation, ...) and live
// here instead.
package main

func main() {
	Execute()
}
