// Package install turns a package definition into an ordered plan of install
// steps and executes plans on a bounded worker pool.
package install
