package compiler

// ComponentDef is the decoded form of one entry under `component`.
type ComponentDef struct {
	Name       string                  `json:"-" validate:"required,qualified"`
	Super      string                  `json:"super,omitempty" validate:"omitempty,qualified"`
	Mode       string                  `json:"mode" validate:"required,oneof=resolved derivation modification"`
	Global     bool                    `json:"global,omitempty"`
	Remote     bool                    `json:"remote,omitempty"`
	Signature  bool                    `json:"signature,omitempty"`
	Implements []string                `json:"implements,omitempty" validate:"dive,qualified"`
	Behaviors  map[string]*BehaviorDef `json:"behavior,omitempty" validate:"dive"`
}

// BehaviorDef declares one behavior. Name defaults to the field label, so
// overloads use distinct labels with an explicit name. Returns defaults to
// void for resolved and inserted behaviors; a delta that omits it leaves
// the base return untouched.
//
// Attribute pointers distinguish "not written" from a written zero value:
// in a delta, only written attributes are specified.
type BehaviorDef struct {
	Name    string      `json:"name,omitempty" validate:"required,identifier"`
	UID     string      `json:"uid,omitempty" validate:"omitempty,uuid"`
	Tip     string      `json:"tip,omitempty"`
	Text    string      `json:"text,omitempty"`
	Returns string      `json:"returns,omitempty" validate:"omitempty,datatype"`
	Params  []ParamDef  `json:"params,omitempty" validate:"dive"`
	Throws  []ThrowsDef `json:"throws,omitempty" validate:"dive"`
	Scripts []ScriptDef `json:"scripts,omitempty" validate:"dive"`

	Exists     *string `json:"exists,omitempty"`
	Access     *string `json:"access,omitempty"`
	Visibility *string `json:"visibility,omitempty"`
	Sync       *bool   `json:"sync,omitempty"`
	Static     *bool   `json:"static,omitempty"`
	Abstract   *bool   `json:"abstract,omitempty"`
	Final      *bool   `json:"final,omitempty"`
	Deprecated *bool   `json:"deprecated,omitempty"`
	Remote     *bool   `json:"remote,omitempty"`

	OverrideBase bool `json:"override_base,omitempty"`
}

// ParamDef declares one parameter.
type ParamDef struct {
	Name      string  `json:"name" validate:"required,identifier"`
	Type      string  `json:"type" validate:"required,datatype,nonvoid"`
	Direction *string `json:"direction,omitempty"`
	UID       string  `json:"uid,omitempty" validate:"omitempty,uuid"`
	Tip       string  `json:"tip,omitempty"`
	Text      string  `json:"text,omitempty"`
}

// ThrowsDef declares one exception.
type ThrowsDef struct {
	Type   string  `json:"type" validate:"required,datatype,classtype"`
	Exists *string `json:"exists,omitempty"`
	UID    string  `json:"uid,omitempty" validate:"omitempty,uuid"`
}

// ScriptDef declares one implementation script.
type ScriptDef struct {
	Language string `json:"language" validate:"required,language"`
	Script   string `json:"script"`
	UID      string `json:"uid,omitempty" validate:"omitempty,uuid"`
}
