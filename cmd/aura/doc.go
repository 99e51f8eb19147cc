// Command aura is the CLI for the medical-image analysis pipeline. It runs
// single-image analyses, inspects workflow history, and manages
// configuration.
package main
