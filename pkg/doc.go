// Package pkg holds the libraries behind importaudit.
//
// # Overview
//
// importaudit finds the third-party packages a Python source tree imports,
// checks that they exist, optionally installs the missing ones and writes a
// requirements.txt. The pkg directory is organized by stage:
//
//  1. [scan] - enumerate source files and extract top-level import names
//  2. [stdlib] - the standard-library table and import-to-distribution renames
//  3. [audit] - classification, concurrent verification and installation
//  4. [pkgmgr] - the pip command boundary
//  5. [manifest] - reading and writing requirements files
//
// Supporting packages: [integrations] and [integrations/pypi] query the
// package index, [cache] stores registry answers (file or Redis),
// [httputil] retries transient failures, [errors] carries coded errors and
// [observability] exposes hooks for logging and metrics.
//
// # Data Flow
//
//	source tree
//	     ↓
//	[scan] names per file
//	     ↓
//	[audit] Classifier → Verifier (local probe, index) → Installer
//	     ↓
//	[manifest] sorted requirements.txt
//
// # Quick Start
//
//	pip := pkgmgr.NewPip("python3", nil)
//	index := pypi.NewClient(cache.NewNullCache(), cache.DefaultTTL, "")
//	verifier, _ := audit.NewVerifier(audit.StrategyAuto, pip, index)
//
//	runner := audit.NewRunner(audit.NewClassifier(nil, nil), verifier, pip, nil)
//	res, err := runner.Run(ctx, audit.Options{Root: ".", Install: true})
//
// [scan]: github.com/matzehuels/importaudit/pkg/scan
// [stdlib]: github.com/matzehuels/importaudit/pkg/stdlib
// [audit]: github.com/matzehuels/importaudit/pkg/audit
// [pkgmgr]: github.com/matzehuels/importaudit/pkg/pkgmgr
// [manifest]: github.com/matzehuels/importaudit/pkg/manifest
// [integrations]: github.com/matzehuels/importaudit/pkg/integrations
// [integrations/pypi]: github.com/matzehuels/importaudit/pkg/integrations/pypi
// [cache]: github.com/matzehuels/importaudit/pkg/cache
// [httputil]: github.com/matzehuels/importaudit/pkg/httputil
// [errors]: github.com/matzehuels/importaudit/pkg/errors
// [observability]: github.com/matzehuels/importaudit/pkg/observability
package pkg
