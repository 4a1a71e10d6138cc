// Package version provides the driver version and compatibility checks for
// saved configuration.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is the release of this driver. Saved configurations carry it.
const Version = "1.0"

// Release is a parsed "major.minor" version.
type Release struct {
	Major uint16
	Minor uint16
}

// Parse parses a "major.minor" version string.
func Parse(s string) (Release, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return Release{}, fmt.Errorf("invalid version %q: expected major.minor", s)
	}

	major, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil || parts[0] == "" {
		return Release{}, fmt.Errorf("invalid version %q: bad major component", s)
	}

	minor, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil || parts[1] == "" {
		return Release{}, fmt.Errorf("invalid version %q: bad minor component", s)
	}

	return Release{Major: uint16(major), Minor: uint16(minor)}, nil
}

// String returns the version as "major.minor".
func (v Release) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compatible returns true if the other version has the same major version.
func (v Release) Compatible(other Release) bool {
	return v.Major == other.Major
}

// CheckWriter reports whether a configuration written by the driver version
// s can be loaded by this one. An empty s is accepted.
func CheckWriter(s string) error {
	if s == "" {
		return nil
	}
	w, err := Parse(s)
	if err != nil {
		return err
	}
	cur, _ := Parse(Version)
	if !cur.Compatible(w) {
		return fmt.Errorf("configuration written by driver %s, running %s", w, cur)
	}
	return nil
}
