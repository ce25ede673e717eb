// Package pack loads solution packs: YAML manifests through which a module
// contributes wizard steps for its content models, the include files those
// steps need and the repository objects the module requires.
package pack
