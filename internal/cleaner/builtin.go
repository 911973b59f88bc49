package cleaner

const (
	pycacheDir     = "__pycache__"
	bytecodeExt    = ".pyc"
	cargoTargetDir = "target"
	cargoManifest  = "Cargo.toml"
	nodeModulesDir = "node_modules"
)

// Builtin returns a registry holding the stock cleaners.
func Builtin() *Registry {
	r := NewRegistry()
	r.Register(Node, NodeModules)
	r.Register(Cargo, CargoTarget)
	r.Register(Python, PycacheDir)
	r.Register(Python, BytecodeFile)
	return r
}

// NodeModules matches npm/yarn/pnpm dependency directories.
func NodeModules(e Entry) bool {
	return e.Name == nodeModulesDir
}

// CargoTarget matches a Rust build directory next to its Cargo.toml.
func CargoTarget(e Entry) bool {
	return e.Name == cargoTargetDir && e.SiblingExists(cargoManifest)
}

// PycacheDir matches Python's per-package bytecode cache directory.
func PycacheDir(e Entry) bool {
	return e.Name == pycacheDir
}

// BytecodeFile matches stray compiled Python files.
func BytecodeFile(e Entry) bool {
	return e.Ext() == bytecodeExt
}
