// Package schema defines the HCL wire structures for package manifests.
package schema

import "github.com/hashicorp/hcl/v2"

// --- Manifest Structures ---

// Source represents the content of the 'source' block within a package.
type Source struct {
	Repo string `hcl:"repo"`
	Ref  string `hcl:"ref,optional"`
}

// Launch represents the content of the 'launch' block within a package.
type Launch struct {
	Entry        string            `hcl:"entry"`
	Args         []string          `hcl:"args,optional"`
	Env          map[string]string `hcl:"env,optional"`
	ReadyPattern string            `hcl:"ready_pattern"`
	WorkingDir   string            `hcl:"working_dir,optional"`
}

// Install represents the content of the 'install' block within a package.
type Install struct {
	Requirements  string            `hcl:"requirements,optional"`
	TorchIndex    map[string]string `hcl:"torch_index,optional"`
	ExtraPackages []string          `hcl:"extra_packages,optional"`
}

// FolderMap represents a single 'map' block inside 'folders'. The label is
// the path inside the package checkout; 'to' is the shared location it is
// linked to.
type FolderMap struct {
	PackagePath string `hcl:"package_path,label"`
	To          string `hcl:"to"`
}

// Folders represents the 'folders' block: the package's folder-mapping table.
type Folders struct {
	Maps []*FolderMap `hcl:"map,block"`
}

// Hooks represents the 'hooks' block. Values name either a registered Go
// handler or a Lua script path relative to the manifest.
type Hooks struct {
	PostInstall string `hcl:"post_install,optional"`
	PreLaunch   string `hcl:"pre_launch,optional"`
}

// Package represents a `package` block from a manifest file. It is the
// declarative record for one installable web UI application.
type Package struct {
	Name        string   `hcl:"name,label"`
	DisplayName string   `hcl:"display_name,optional"`
	Description string   `hcl:"description,optional"`
	Source      *Source  `hcl:"source,block"`
	Launch      *Launch  `hcl:"launch,block"`
	Install     *Install `hcl:"install,block"`
	Folders     *Folders `hcl:"folders,block"`
	Hooks       *Hooks   `hcl:"hooks,block"`
}

// Manifest represents the top-level structure of a manifest file, containing
// any number of package definitions.
type Manifest struct {
	Packages []*Package `hcl:"package,block"`
	Body     hcl.Body   `hcl:",remain"`
}
