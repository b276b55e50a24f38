package config

// Model is the unified, format-agnostic representation of the entire package
// catalog loaded from the packages path.
type Model struct {
	Packages map[string]*PackageDefinition
}

// PackageDefinition is the format-agnostic representation of one package
// manifest: a declarative record describing how to install and launch a
// third-party web UI application.
type PackageDefinition struct {
	Name        string
	DisplayName string
	Description string

	Source  *Source
	Launch  *Launch
	Install *Install
	Folders []*FolderMapping
	Hooks   *Hooks

	// ManifestDir is the directory the manifest was loaded from. Relative
	// paths inside the manifest (hook scripts) resolve against it.
	ManifestDir string
}

// Source describes where the package's code comes from.
type Source struct {
	Repo string
	Ref  string
}

// Launch describes how to start the package and how to recognize that its
// web UI is ready.
type Launch struct {
	// Entry is the script passed to the interpreter, relative to the
	// package checkout.
	Entry string
	// Args are the default command line flags appended after Entry.
	Args []string
	// Env is merged into the subprocess environment.
	Env map[string]string
	// ReadyPattern is a regular expression applied to every console line;
	// its first capture group (or the whole match) is the web UI URL.
	ReadyPattern string
	// WorkingDir overrides the working directory, relative to the checkout.
	WorkingDir string
}

// Install describes the package's dependency installation inputs.
type Install struct {
	// Requirements is the pip requirements file, relative to the checkout.
	Requirements string
	// TorchIndex maps an accelerator name (cuda, rocm, cpu) to the pip
	// extra index URL used when installing torch.
	TorchIndex map[string]string
	// ExtraPackages are pip specs installed after the requirements file.
	ExtraPackages []string
}

// FolderMapping links a directory inside the package checkout to a shared
// directory under the data dir, so models are downloaded once and shared
// between packages.
type FolderMapping struct {
	// PackagePath is relative to the package checkout.
	PackagePath string
	// SharedPath is relative to the shared models root.
	SharedPath string
}

// Hooks names the lifecycle hooks of a package. Each value is either the name
// of a Go handler registered by the package's module, or a path to a Lua
// script (relative to the manifest dir) executed by the script host.
type Hooks struct {
	PostInstall string
	PreLaunch   string
}
