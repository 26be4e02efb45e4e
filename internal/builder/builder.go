// Package builder evaluates a package script in a scratch directory and
// captures the manifest and file list it produces (spec §4.5). The script
// is a Lua chunk, evaluated in-process by an embedded gopher-lua VM rather
// than shelled out to an external interpreter.
package builder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	lua "github.com/yuin/gopher-lua"

	"github.com/sid-code/tfpm/internal/fsutil"
	"github.com/sid-code/tfpm/internal/snapshot"
)

// Manifest is the raw, unparsed manifest a package script returns. Version
// and Deps are kept as strings here; parsing into the domain types lives
// in the root package, the same split the catalog keeps between its
// stored rows and the parsed Manifest.
type Manifest struct {
	Name       string
	Version    string
	Maintainer string
	Deps       string
}

// Result is everything Build captures from one script evaluation.
type Result struct {
	Manifest   Manifest
	ScratchDir string
	Files      []snapshot.Entry
}

// InvalidManifestError reports a missing or ill-typed manifest field.
type InvalidManifestError struct {
	Path  string
	Field string
}

func (e *InvalidManifestError) Error() string {
	return fmt.Sprintf("%s: manifest missing required field %q", e.Path, e.Field)
}

// ScriptFailedError wraps a Lua-side failure raised while evaluating the
// script.
type ScriptFailedError struct {
	Path string
	Err  error
}

func (e *ScriptFailedError) Error() string {
	return fmt.Sprintf("%s: script failed: %v", e.Path, e.Err)
}

func (e *ScriptFailedError) Unwrap() error { return e.Err }

// Build runs scriptPath's package script to completion and returns its
// manifest, the scratch directory it ran in, and a snapshot of the files
// it produced. The scratch directory is left on disk for the caller (the
// install coordinator) to materialize from and is the caller's
// responsibility to remove once it no longer needs the payload.
func Build(scriptPath string) (Result, error) {
	scratchDir, err := os.MkdirTemp("", "tfpm-build-")
	if err != nil {
		return Result{}, errors.Wrap(err, "creating scratch directory")
	}

	scriptCopy := filepath.Join(scratchDir, filepath.Base(scriptPath))
	if err := fsutil.CopyFile(scriptPath, scriptCopy, 0o644); err != nil {
		os.RemoveAll(scratchDir)
		return Result{}, errors.Wrapf(err, "copying script %q into scratch dir", scriptPath)
	}

	prevWD, err := os.Getwd()
	if err != nil {
		os.RemoveAll(scratchDir)
		return Result{}, errors.Wrap(err, "getting working directory")
	}
	if err := os.Chdir(scratchDir); err != nil {
		os.RemoveAll(scratchDir)
		return Result{}, errors.Wrapf(err, "entering scratch directory %q", scratchDir)
	}
	defer os.Chdir(prevWD)

	rawManifest, runErr := runScript(scriptCopy)
	os.Remove(scriptCopy)
	if runErr != nil {
		return Result{}, &ScriptFailedError{Path: scriptPath, Err: runErr}
	}

	manifest, err := validateManifest(scriptPath, rawManifest)
	if err != nil {
		return Result{}, err
	}

	files, err := snapshot.Walk(scratchDir)
	if err != nil {
		return Result{}, errors.Wrapf(err, "snapshotting scratch directory for %q", scriptPath)
	}

	return Result{Manifest: manifest, ScratchDir: scratchDir, Files: files}, nil
}

// runScript evaluates the Lua chunk at path and returns the table it
// returns. The chunk is invoked with zero arguments, consistent with the
// "zero-argument callable" contract in spec §4.5 and §6: a Lua source
// file's top-level body is itself a vararg function.
func runScript(path string) (*lua.LTable, error) {
	L := lua.NewState()
	defer L.Close()

	registerPackageAPI(L)

	fn, err := L.LoadFile(path)
	if err != nil {
		return nil, err
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		return nil, err
	}

	ret := L.Get(-1)
	L.Pop(1)

	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return nil, errors.Errorf("script did not return a manifest table (got %s)", ret.Type().String())
	}
	return tbl, nil
}

// registerPackageAPI exposes the file/directory side effects a package
// script may perform, as the global table "pkg". Paths are relative to
// the scratch directory, which is the current working directory for the
// duration of the script's evaluation.
func registerPackageAPI(L *lua.LState) {
	mod := L.NewTable()
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"write": luaWriteFile,
		"mkdir": luaMkdir,
	})
	L.SetGlobal("pkg", mod)
}

func luaWriteFile(L *lua.LState) int {
	path := L.CheckString(1)
	content := L.CheckString(2)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			L.RaiseError("pkg.write %q: %v", path, err)
			return 0
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		L.RaiseError("pkg.write %q: %v", path, err)
	}
	return 0
}

func luaMkdir(L *lua.LState) int {
	path := L.CheckString(1)
	if err := os.MkdirAll(path, 0o755); err != nil {
		L.RaiseError("pkg.mkdir %q: %v", path, err)
	}
	return 0
}

func validateManifest(scriptPath string, tbl *lua.LTable) (Manifest, error) {
	field := func(name string) (string, bool) {
		v := tbl.RawGetString(name)
		s, ok := v.(lua.LString)
		if !ok {
			return "", false
		}
		return string(s), true
	}

	name, ok := field("name")
	if !ok || name == "" {
		return Manifest{}, &InvalidManifestError{Path: scriptPath, Field: "name"}
	}
	ver, ok := field("version")
	if !ok || ver == "" {
		return Manifest{}, &InvalidManifestError{Path: scriptPath, Field: "version"}
	}
	maintainer, ok := field("maintainer")
	if !ok || maintainer == "" {
		return Manifest{}, &InvalidManifestError{Path: scriptPath, Field: "maintainer"}
	}

	deps := ""
	if depsVal := tbl.RawGetString("deps"); depsVal != lua.LNil {
		d, ok := depsVal.(lua.LString)
		if !ok {
			return Manifest{}, &InvalidManifestError{Path: scriptPath, Field: "deps"}
		}
		deps = string(d)
	}

	return Manifest{Name: name, Version: ver, Maintainer: maintainer, Deps: deps}, nil
}
