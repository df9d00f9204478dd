package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ObjectKind names a node type in the server's container hierarchy.
type ObjectKind string

const (
	KindProject      ObjectKind = "Project"
	KindDataset      ObjectKind = "Dataset"
	KindScreen       ObjectKind = "Screen"
	KindPlate        ObjectKind = "Plate"
	KindImage        ObjectKind = "Image"
	KindOriginalFile ObjectKind = "OriginalFile"
)

var knownKinds = []ObjectKind{
	KindProject, KindDataset, KindScreen, KindPlate, KindImage, KindOriginalFile,
}

// ParseObjectKind matches name case-insensitively against the known kinds.
func ParseObjectKind(name string) (ObjectKind, error) {
	for _, k := range knownKinds {
		if strings.EqualFold(string(k), name) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, name)
}

// ObjectRef is an unloaded reference to a server object.
type ObjectRef struct {
	Kind ObjectKind
	ID   int64
}

// ParseObjectRef parses "<Kind>:<id>". A bare id is read as an Image.
func ParseObjectRef(s string) (ObjectRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ObjectRef{}, fmt.Errorf("%w: empty reference", ErrInvalidObjectRef)
	}

	kind := KindImage
	idPart := s
	if name, rest, ok := strings.Cut(s, ":"); ok {
		k, err := ParseObjectKind(name)
		if err != nil {
			return ObjectRef{}, err
		}
		kind = k
		idPart = rest
	}

	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return ObjectRef{}, fmt.Errorf("%w: %q", ErrInvalidObjectRef, s)
	}
	return ObjectRef{Kind: kind, ID: id}, nil
}

// ParseObjectRefs parses each argument with ParseObjectRef.
func ParseObjectRefs(args []string) ([]ObjectRef, error) {
	refs := make([]ObjectRef, 0, len(args))
	for _, a := range args {
		ref, err := ParseObjectRef(a)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (r ObjectRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}
