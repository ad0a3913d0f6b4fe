package config

import (
	"strings"
)

type keyKind int

const (
	kindString keyKind = iota
	kindList
	kindDuration
)

// Key names as documented. git reports them lowercased, so lookups are case
// insensitive.
const (
	KeyClonesDir     = "spaces.clones.dir"
	KeyClonesPrefix  = "spaces.clones.prefix"
	KeyMirrorsDir    = "spaces.mirrors.dir"
	KeyLockTimeout   = "spaces.mirrors.lockTimeout"
	KeyDefaultBranch = "spaces.defaultBranch"
	KeyCopyInclude   = "spaces.copy.include"
	KeyCopyExclude   = "spaces.copy.exclude"
	KeyIncludeDirs   = "spaces.copy.includeDirs"
	KeyExcludeDirs   = "spaces.copy.excludeDirs"
	KeyPatternFiles  = "spaces.copy.patternFiles"
	KeyPostCreate    = "spaces.hook.postCreate"
	KeyPreRemove     = "spaces.hook.preRemove"
	KeyPostRemove    = "spaces.hook.postRemove"
)

type keySpec struct {
	name string
	env  string // suffix after SPACES_
	kind keyKind
}

var keySpecs = []keySpec{
	{KeyClonesDir, "CLONES_DIR", kindString},
	{KeyClonesPrefix, "CLONES_PREFIX", kindString},
	{KeyMirrorsDir, "MIRRORS_DIR", kindString},
	{KeyLockTimeout, "MIRRORS_LOCK_TIMEOUT", kindDuration},
	{KeyDefaultBranch, "DEFAULT_BRANCH", kindString},
	{KeyCopyInclude, "COPY_INCLUDE", kindList},
	{KeyCopyExclude, "COPY_EXCLUDE", kindList},
	{KeyIncludeDirs, "COPY_INCLUDE_DIRS", kindList},
	{KeyExcludeDirs, "COPY_EXCLUDE_DIRS", kindList},
	{KeyPatternFiles, "COPY_PATTERN_FILES", kindString},
	{KeyPostCreate, "HOOK_POST_CREATE", kindList},
	{KeyPreRemove, "HOOK_PRE_REMOVE", kindList},
	{KeyPostRemove, "HOOK_POST_REMOVE", kindList},
}

func lookupKey(name string) (keySpec, bool) {
	for _, spec := range keySpecs {
		if strings.EqualFold(spec.name, name) {
			return spec, true
		}
	}
	return keySpec{}, false
}

// KnownKeys returns the documented configuration keys.
func KnownKeys() []string {
	names := make([]string, 0, len(keySpecs))
	for _, spec := range keySpecs {
		names = append(names, spec.name)
	}
	return names
}

// IsListKey reports whether key accumulates values across layers.
func IsListKey(key string) bool {
	spec, ok := lookupKey(key)
	return ok && spec.kind == kindList
}
