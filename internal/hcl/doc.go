// Package hcl implements the HCL-backed catalog loader. It discovers
// manifest files under the packages path, parses them with hclparse, and
// translates the decoded blocks into the format-agnostic config model.
package hcl
