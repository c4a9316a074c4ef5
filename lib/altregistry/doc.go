// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

// Package altregistry discovers alternate stage content on disk and
// builds the immutable mapping the interception engine consults:
// (stage, alt slot, original content hash) → replacement.
//
// Alternate content lives under a root directory with one folder per
// stage and one slot folder per alternate:
//
//	alts/
//	  battlefield/
//	    s01/
//	      alt.jsonc
//	      model.numdlb
//	    s02/
//	      alt.jsonc
//	      ...
//
// Each slot folder carries an alt.jsonc manifest (JSON with comments
// and trailing commas) naming the alternate and listing which archive
// paths it overrides. An override either points at a payload file
// inside the slot folder or redirects to a different in-archive path.
//
// Discovery is tolerant by design: a malformed slot folder or
// manifest is skipped with a warning and the rest of the tree is
// still used. Slot 0 is always the unmodified original and can never
// be claimed by an alternate. When two manifests claim the same
// (stage, slot, hash), the last one registered wins; the conflict is
// logged.
package altregistry
