package config

import "fmt"

var SemanticVersion string
var CommitVersion string

type Version struct {
	Semantic string
	Commit   string
}

func GetVersion() Version {
	return Version{
		Semantic: valueOr(SemanticVersion, "v0.0.0-dev"),
		Commit:   valueOr(CommitVersion, "unknown"),
	}
}

func (v Version) String() string {
	return fmt.Sprintf("%s (%s)", v.Semantic, v.Commit)
}

func valueOr(value string, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
