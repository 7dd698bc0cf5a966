package workflow

import (
	"encoding/json"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Casys-AI/flowgrid/types"
)

// DAGToJSON converts a DAG to an indented JSON string.
func DAGToJSON(dag *types.DAGStructure) (string, error) {
	data, err := json.MarshalIndent(dag, "", "  ")
	if err != nil {
		return "", types.NewError(types.ErrInvalidStructure, "marshal DAG to JSON").WithCause(err)
	}
	return string(data), nil
}

// DAGToYAML converts a DAG to a YAML string.
func DAGToYAML(dag *types.DAGStructure) (string, error) {
	data, err := yaml.Marshal(dag)
	if err != nil {
		return "", types.NewError(types.ErrInvalidStructure, "marshal DAG to YAML").WithCause(err)
	}
	return string(data), nil
}

// DAGFromJSON parses and validates a DAG from a JSON string.
func DAGFromJSON(jsonStr string) (*types.DAGStructure, error) {
	var dag types.DAGStructure
	if err := json.Unmarshal([]byte(jsonStr), &dag); err != nil {
		return nil, types.NewError(types.ErrInvalidStructure, "unmarshal DAG from JSON").WithCause(err)
	}
	if err := dag.Validate(); err != nil {
		return nil, err
	}
	if err := checkAcyclic(&dag); err != nil {
		return nil, err
	}
	return &dag, nil
}

// DAGFromYAML parses and validates a DAG from a YAML string.
func DAGFromYAML(yamlStr string) (*types.DAGStructure, error) {
	var dag types.DAGStructure
	if err := yaml.Unmarshal([]byte(yamlStr), &dag); err != nil {
		return nil, types.NewError(types.ErrInvalidStructure, "unmarshal DAG from YAML").WithCause(err)
	}
	if err := dag.Validate(); err != nil {
		return nil, err
	}
	if err := checkAcyclic(&dag); err != nil {
		return nil, err
	}
	return &dag, nil
}

// LoadDAGFromFile loads a DAG from a JSON or YAML file, chosen by extension.
func LoadDAGFromFile(filename string) (*types.DAGStructure, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, types.NewErrorf(types.ErrInvalidStructure, "read DAG file %s", filename).WithCause(err)
	}
	if isYAMLFile(filename) {
		return DAGFromYAML(string(data))
	}
	return DAGFromJSON(string(data))
}

// SaveDAGToFile writes a DAG to a JSON or YAML file, chosen by extension.
func SaveDAGToFile(dag *types.DAGStructure, filename string) error {
	var out string
	var err error
	if isYAMLFile(filename) {
		out, err = DAGToYAML(dag)
	} else {
		out, err = DAGToJSON(dag)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, []byte(out), 0644); err != nil {
		return types.NewErrorf(types.ErrInvalidStructure, "write DAG file %s", filename).WithCause(err)
	}
	return nil
}

// StructureFromJSON parses an analysis structure from a JSON string.
func StructureFromJSON(jsonStr string) (*Structure, error) {
	var s Structure
	if err := json.Unmarshal([]byte(jsonStr), &s); err != nil {
		return nil, types.NewError(types.ErrInvalidStructure, "unmarshal structure from JSON").WithCause(err)
	}
	return &s, nil
}

// StructureFromYAML parses an analysis structure from a YAML string.
func StructureFromYAML(yamlStr string) (*Structure, error) {
	var s Structure
	if err := yaml.Unmarshal([]byte(yamlStr), &s); err != nil {
		return nil, types.NewError(types.ErrInvalidStructure, "unmarshal structure from YAML").WithCause(err)
	}
	return &s, nil
}

// LoadStructureFromFile loads an analysis structure from a JSON or YAML file.
func LoadStructureFromFile(filename string) (*Structure, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, types.NewErrorf(types.ErrInvalidStructure, "read structure file %s", filename).WithCause(err)
	}
	if isYAMLFile(filename) {
		return StructureFromYAML(string(data))
	}
	return StructureFromJSON(string(data))
}

func isYAMLFile(filename string) bool {
	n := len(filename)
	return (n > 5 && filename[n-5:] == ".yaml") || (n > 4 && filename[n-4:] == ".yml")
}
