package config

import (
	"time"

	"github.com/samber/lo"
	"github.com/sqve/spaces/internal/errors"
)

// Layer is a partial configuration from one source. Nil scalars and empty
// lists leave lower layers untouched.
type Layer struct {
	ClonesDir     *string
	ClonesPrefix  *string
	MirrorsDir    *string
	DefaultBranch *string
	PatternFiles  *string
	LockTimeout   *time.Duration

	Include     []string
	Exclude     []string
	IncludeDirs []string
	ExcludeDirs []string

	PostCreate []string
	PreRemove  []string
	PostRemove []string
}

// Merge returns l with upper folded on top: scalars in upper replace those in
// l, lists are appended and de-duplicated keeping the first occurrence.
func (l Layer) Merge(upper Layer) Layer {
	out := l
	out.ClonesDir = override(l.ClonesDir, upper.ClonesDir)
	out.ClonesPrefix = override(l.ClonesPrefix, upper.ClonesPrefix)
	out.MirrorsDir = override(l.MirrorsDir, upper.MirrorsDir)
	out.DefaultBranch = override(l.DefaultBranch, upper.DefaultBranch)
	out.PatternFiles = override(l.PatternFiles, upper.PatternFiles)
	out.LockTimeout = override(l.LockTimeout, upper.LockTimeout)

	out.Include = concat(l.Include, upper.Include)
	out.Exclude = concat(l.Exclude, upper.Exclude)
	out.IncludeDirs = concat(l.IncludeDirs, upper.IncludeDirs)
	out.ExcludeDirs = concat(l.ExcludeDirs, upper.ExcludeDirs)

	out.PostCreate = concat(l.PostCreate, upper.PostCreate)
	out.PreRemove = concat(l.PreRemove, upper.PreRemove)
	out.PostRemove = concat(l.PostRemove, upper.PostRemove)
	return out
}

// Fold merges layers from lowest to highest priority.
func Fold(layers ...Layer) Layer {
	return lo.Reduce(layers, func(acc Layer, l Layer, _ int) Layer {
		return acc.Merge(l)
	}, Layer{})
}

func override[T any](lower, upper *T) *T {
	if upper != nil {
		return upper
	}
	return lower
}

// concat appends upper to lower and drops repeats, keeping the last
// occurrence so an entry re-asserted by a higher layer sorts after the lower
// layer's entries.
func concat(lower, upper []string) []string {
	if len(upper) == 0 {
		return lower
	}
	merged := append(append([]string{}, lower...), upper...)
	return lo.Reverse(lo.Uniq(lo.Reverse(merged)))
}

// set stores values for key. Scalars take the last value, the way git
// resolves repeated keys.
func (l *Layer) set(key string, values []string, source string) error {
	spec, ok := lookupKey(key)
	if !ok || len(values) == 0 {
		return nil
	}

	last := values[len(values)-1]
	switch spec.kind {
	case kindList:
		values = lo.Filter(values, func(v string, _ int) bool { return v != "" })
		l.setList(spec.name, values)
	case kindDuration:
		d, err := time.ParseDuration(last)
		if err != nil || d <= 0 {
			if err == nil {
				err = errors.New("duration must be positive")
			}
			return errors.ErrConfigInvalid(spec.name, err).WithContext("source", source)
		}
		l.LockTimeout = &d
	default:
		l.setString(spec.name, last)
	}
	return nil
}

func (l *Layer) setString(name, value string) {
	switch name {
	case KeyClonesDir:
		l.ClonesDir = &value
	case KeyClonesPrefix:
		l.ClonesPrefix = &value
	case KeyMirrorsDir:
		l.MirrorsDir = &value
	case KeyDefaultBranch:
		l.DefaultBranch = &value
	case KeyPatternFiles:
		l.PatternFiles = &value
	}
}

func (l *Layer) setList(name string, values []string) {
	switch name {
	case KeyCopyInclude:
		l.Include = append(l.Include, values...)
	case KeyCopyExclude:
		l.Exclude = append(l.Exclude, values...)
	case KeyIncludeDirs:
		l.IncludeDirs = append(l.IncludeDirs, values...)
	case KeyExcludeDirs:
		l.ExcludeDirs = append(l.ExcludeDirs, values...)
	case KeyPostCreate:
		l.PostCreate = append(l.PostCreate, values...)
	case KeyPreRemove:
		l.PreRemove = append(l.PreRemove, values...)
	case KeyPostRemove:
		l.PostRemove = append(l.PostRemove, values...)
	}
}
