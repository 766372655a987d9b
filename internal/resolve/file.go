package resolve

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Dictionary is the on-disk label list.
//
//	labels:
//	  - alice
//	  - bob
type Dictionary struct {
	Labels []string `yaml:"labels"`
}

// LoadDictionary reads a YAML label list.
func LoadDictionary(path string) (Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Dictionary{}, fmt.Errorf("read label dictionary: %w", err)
	}

	var d Dictionary
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return Dictionary{}, fmt.Errorf("parse label dictionary %s: %w", path, err)
	}
	for i, l := range d.Labels {
		if l == "" {
			return Dictionary{}, fmt.Errorf("parse label dictionary %s: empty label at index %d", path, i)
		}
	}
	return d, nil
}

// LoadStatic reads a YAML label list into a Static resolver.
func LoadStatic(path string) (Static, error) {
	d, err := LoadDictionary(path)
	if err != nil {
		return nil, err
	}
	return NewStatic(d.Labels...), nil
}
