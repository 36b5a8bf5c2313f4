package rewrite

import (
	"os"

	"github.com/distr1/hackctl/internal/herrors"
	"github.com/distr1/hackctl/internal/manifest"
)

// Rewriter applies the manifest-editing flags to a set of manifest paths,
// recording every edit into a Handle's Session so it can be restored
// later (unless the edit is --remove-dev-deps, which is deliberately
// permanent).
type Rewriter struct {
	Handle *Handle
}

// StripDevDependencies implements --no-dev-deps and --remove-dev-deps: it
// removes every dev-dependencies table (root and target-conditional) from
// each manifest in paths. restore controls whether the edit is recorded
// for later restoration (true for --no-dev-deps, false for
// --remove-dev-deps, which is permanent by design).
func (r *Rewriter) StripDevDependencies(paths []string, restore bool) error {
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return herrors.New(herrors.IoError, err).WithOffending(path)
		}
		buf := manifest.NewEditBuffer(raw)
		buf.RemoveDevDependencies()
		if !buf.Changed() {
			continue
		}
		if err := writeManifest(path, buf.Bytes()); err != nil {
			return err
		}
		if restore {
			r.Handle.Session().Record(path, buf.Original(), buf.Bytes())
		}
	}
	return nil
}

// StripPrivateMembers implements --no-private's workspace-root edit: it
// relocates every path in privatePaths from the workspace members array
// into its exclude array, and records the edit for restoration (this edit
// is always restorable; there is no --remove-private equivalent of
// --remove-dev-deps).
func (r *Rewriter) StripPrivateMembers(workspaceManifestPath string, privatePaths []string) error {
	if len(privatePaths) == 0 {
		return nil
	}
	raw, err := os.ReadFile(workspaceManifestPath)
	if err != nil {
		return herrors.New(herrors.IoError, err).WithOffending(workspaceManifestPath)
	}
	buf := manifest.NewEditBuffer(raw)
	buf.RemovePrivateMembers(privatePaths)
	if !buf.Changed() {
		return nil
	}
	if err := writeManifest(workspaceManifestPath, buf.Bytes()); err != nil {
		return err
	}
	r.Handle.Session().Record(workspaceManifestPath, buf.Original(), buf.Bytes())
	return nil
}

func writeManifest(path string, data []byte) error {
	if err := atomicWrite(path, data); err != nil {
		return herrors.New(herrors.IoError, err).WithOffending(path)
	}
	return nil
}
