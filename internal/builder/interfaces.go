package builder

import (
	"strings"

	"github.com/nocoforge/nocobase-mcp/internal/merge"
)

// displayModels maps a field interface to the FlowModel class used to
// render it read-only (table columns, detail items).
var displayModels = map[string]string{
	"input": "DisplayTextFieldModel", "textarea": "DisplayTextFieldModel",
	"email": "DisplayTextFieldModel", "phone": "DisplayTextFieldModel",
	"sequence": "DisplayTextFieldModel", "markdown": "DisplayTextFieldModel",
	"select": "DisplayEnumFieldModel", "radioGroup": "DisplayEnumFieldModel",
	"checkbox": "DisplayCheckboxFieldModel",
	"integer":  "DisplayNumberFieldModel", "number": "DisplayNumberFieldModel",
	"percent": "DisplayNumberFieldModel", "sort": "DisplayNumberFieldModel",
	"date": "DisplayDateTimeFieldModel", "datetime": "DisplayDateTimeFieldModel",
	"createdAt": "DisplayDateTimeFieldModel", "updatedAt": "DisplayDateTimeFieldModel",
	"color": "DisplayColorFieldModel", "icon": "DisplayIconFieldModel",
	"m2o": "DisplayTextFieldModel",
	"o2m": "DisplayNumberFieldModel",
}

// editModels maps a field interface to the editable FlowModel class
// (form fields).
var editModels = map[string]string{
	"input": "InputFieldModel", "textarea": "TextareaFieldModel",
	"email": "InputFieldModel", "phone": "InputFieldModel",
	"markdown": "TextareaFieldModel",
	"select":   "SelectFieldModel", "radioGroup": "RadioGroupFieldModel",
	"checkbox": "CheckboxFieldModel",
	"integer":  "NumberFieldModel", "number": "NumberFieldModel",
	"percent": "NumberFieldModel",
	"date":    "DateOnlyFieldModel", "datetime": "DateTimeTzFieldModel",
	"color": "InputFieldModel", "icon": "InputFieldModel",
	"m2o": "RecordSelectFieldModel",
}

// DisplayModel returns the read-only FlowModel class for an interface.
func DisplayModel(iface string) string {
	if m, ok := displayModels[iface]; ok {
		return m
	}
	return "DisplayTextFieldModel"
}

// EditModel returns the editable FlowModel class for an interface.
func EditModel(iface string) string {
	if m, ok := editModels[iface]; ok {
		return m
	}
	return "InputFieldModel"
}

// interfaceTemplates holds the column type and uiSchema that each field
// interface expects when a synced DB column is upgraded to it.
var interfaceTemplates = map[string]map[string]any{
	"input": {
		"type":     "string",
		"uiSchema": map[string]any{"type": "string", "x-component": "Input"},
	},
	"textarea": {
		"type":     "text",
		"uiSchema": map[string]any{"type": "string", "x-component": "Input.TextArea"},
	},
	"email": {
		"type":     "string",
		"uiSchema": map[string]any{"type": "string", "x-component": "Input", "x-validator": "email"},
	},
	"phone": {
		"type":     "string",
		"uiSchema": map[string]any{"type": "string", "x-component": "Input", "x-component-props": map[string]any{"type": "tel"}},
	},
	"url": {
		"type":     "text",
		"uiSchema": map[string]any{"type": "string", "x-component": "Input.URL"},
	},
	"password": {
		"type":     "password",
		"hidden":   true,
		"uiSchema": map[string]any{"type": "string", "x-component": "Password"},
	},
	"color": {
		"type":     "string",
		"uiSchema": map[string]any{"type": "string", "x-component": "ColorPicker"},
	},
	"icon": {
		"type":     "string",
		"uiSchema": map[string]any{"type": "string", "x-component": "IconPicker"},
	},
	"markdown": {
		"type":     "text",
		"uiSchema": map[string]any{"type": "string", "x-component": "Markdown"},
	},
	"richText": {
		"type":     "text",
		"uiSchema": map[string]any{"type": "string", "x-component": "RichText"},
	},
	"select": {
		"type":     "string",
		"uiSchema": map[string]any{"type": "string", "x-component": "Select", "enum": []any{}},
	},
	"multipleSelect": {
		"type":         "array",
		"defaultValue": []any{},
		"uiSchema":     map[string]any{"type": "array", "x-component": "Select", "x-component-props": map[string]any{"mode": "multiple"}, "enum": []any{}},
	},
	"radioGroup": {
		"type":     "string",
		"uiSchema": map[string]any{"type": "string", "x-component": "Radio.Group"},
	},
	"checkboxGroup": {
		"type":         "array",
		"defaultValue": []any{},
		"uiSchema":     map[string]any{"type": "string", "x-component": "Checkbox.Group"},
	},
	"checkbox": {
		"type":     "boolean",
		"uiSchema": map[string]any{"type": "boolean", "x-component": "Checkbox"},
	},
	"number": {
		"type":     "double",
		"uiSchema": map[string]any{"type": "number", "x-component": "InputNumber", "x-component-props": map[string]any{"stringMode": true, "step": "1"}},
	},
	"integer": {
		"type":     "bigInt",
		"uiSchema": map[string]any{"type": "number", "x-component": "InputNumber", "x-component-props": map[string]any{"stringMode": true, "step": "1"}, "x-validator": "integer"},
	},
	"percent": {
		"type":     "float",
		"uiSchema": map[string]any{"type": "string", "x-component": "Percent", "x-component-props": map[string]any{"stringMode": true, "step": "1", "addonAfter": "%"}},
	},
	"sort": {
		"type":     "sort",
		"uiSchema": map[string]any{"type": "number", "x-component": "InputNumber", "x-component-props": map[string]any{"stringMode": true, "step": "1"}, "x-validator": "integer"},
	},
	"datetime": {
		"type":     "date",
		"uiSchema": map[string]any{"type": "string", "x-component": "DatePicker", "x-component-props": map[string]any{"showTime": false, "utc": true}},
	},
	"date": {
		"type":     "dateOnly",
		"uiSchema": map[string]any{"type": "string", "x-component": "DatePicker", "x-component-props": map[string]any{"dateOnly": true, "showTime": false}},
	},
	"datetimeNoTz": {
		"type":     "datetimeNoTz",
		"uiSchema": map[string]any{"type": "string", "x-component": "DatePicker", "x-component-props": map[string]any{"showTime": false, "utc": false}},
	},
	"time": {
		"type":     "time",
		"uiSchema": map[string]any{"type": "string", "x-component": "TimePicker"},
	},
	"id": {
		"type":          "bigInt",
		"autoIncrement": true,
		"primaryKey":    true,
		"allowNull":     false,
		"uiSchema":      map[string]any{"type": "number", "x-component": "InputNumber", "x-read-pretty": true},
	},
	"createdAt": {
		"type":     "date",
		"field":    "createdAt",
		"uiSchema": map[string]any{"type": "datetime", "x-component": "DatePicker", "x-component-props": map[string]any{}, "x-read-pretty": true},
	},
	"updatedAt": {
		"type":     "date",
		"field":    "updatedAt",
		"uiSchema": map[string]any{"type": "datetime", "x-component": "DatePicker", "x-component-props": map[string]any{}, "x-read-pretty": true},
	},
	"createdBy": {
		"type":       "belongsTo",
		"target":     "users",
		"foreignKey": "createdById",
		"uiSchema":   map[string]any{"type": "object", "x-component": "AssociationField", "x-component-props": map[string]any{"fieldNames": map[string]any{"label": "nickname", "value": "id"}}, "x-read-pretty": true},
	},
	"updatedBy": {
		"type":       "belongsTo",
		"target":     "users",
		"foreignKey": "updatedById",
		"uiSchema":   map[string]any{"type": "object", "x-component": "AssociationField", "x-component-props": map[string]any{"fieldNames": map[string]any{"label": "nickname", "value": "id"}}, "x-read-pretty": true},
	},
	"json": {
		"type":     "json",
		"default":  nil,
		"uiSchema": map[string]any{"type": "object", "x-component": "Input.JSON", "x-component-props": map[string]any{"autoSize": map[string]any{"minRows": 5}}},
	},
}

// InterfaceNames returns all interface names the upgrade catalog knows.
func InterfaceNames() []string {
	names := make([]string, 0, len(interfaceTemplates))
	for n := range interfaceTemplates {
		names = append(names, n)
	}
	return names
}

// InterfaceTemplate returns a deep copy of the template for an
// interface, or nil when the interface is unknown.
func InterfaceTemplate(iface string) map[string]any {
	tmpl, ok := interfaceTemplates[iface]
	if !ok {
		return nil
	}
	return merge.Clone(tmpl)
}

// FieldUpgradeOptions tweak the payload built by FieldUpdatePayload.
type FieldUpgradeOptions struct {
	Enum      []any
	Title     string
	Precision *int
}

// autoTitles covers the column names whose display titles don't follow
// the snake_case-to-Title-Case rule.
var autoTitles = map[string]string{
	"id": "ID", "created_at": "Created At", "updated_at": "Updated At",
	"created_by_id": "Created By", "updated_by_id": "Updated By",
}

// FieldUpdatePayload builds the fields:update payload that upgrades a
// synced column to the given interface. Returns nil for unknown
// interfaces.
func FieldUpdatePayload(fieldName, iface string, opts FieldUpgradeOptions, existingTitle string) map[string]any {
	tmpl := InterfaceTemplate(iface)
	if tmpl == nil {
		return nil
	}
	schema := tmpl["uiSchema"].(map[string]any)

	title := existingTitle
	if title == "" {
		if t, ok := autoTitles[fieldName]; ok {
			title = t
		} else {
			title = TitleFromName(fieldName)
		}
	}
	if opts.Title != "" {
		title = opts.Title
	}
	schema["title"] = title

	if opts.Enum != nil {
		schema["enum"] = opts.Enum
	}
	if opts.Precision != nil {
		props, ok := schema["x-component-props"].(map[string]any)
		if !ok {
			props = map[string]any{}
			schema["x-component-props"] = props
		}
		props["step"] = precisionStep(*opts.Precision)
	}

	return map[string]any{"interface": iface, "uiSchema": schema}
}

// precisionStep renders a decimal precision as an InputNumber step
// string: 2 -> "0.01", 0 -> "1".
func precisionStep(precision int) string {
	if precision <= 0 {
		return "1"
	}
	return "0." + strings.Repeat("0", precision-1) + "1"
}

// TitleFromName turns a snake_case column name into a display title.
func TitleFromName(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// SystemFieldPayloads returns the fields:create payloads for the audit
// fields NocoBase expects on every collection. These cannot be created
// via SQL sync alone — the ORM needs the belongsTo metadata.
func SystemFieldPayloads() []map[string]any {
	payloads := []map[string]any{
		{
			"name": "createdAt", "interface": "createdAt", "type": "date", "field": "createdAt",
			"uiSchema": map[string]any{
				"type": "datetime", "title": "Created at", "x-component": "DatePicker",
				"x-component-props": map[string]any{}, "x-read-pretty": true,
			},
		},
		{
			"name": "updatedAt", "interface": "updatedAt", "type": "date", "field": "updatedAt",
			"uiSchema": map[string]any{
				"type": "datetime", "title": "Updated at", "x-component": "DatePicker",
				"x-component-props": map[string]any{}, "x-read-pretty": true,
			},
		},
		{
			"name": "createdBy", "interface": "createdBy", "type": "belongsTo", "target": "users",
			"foreignKey": "createdById",
			"uiSchema": map[string]any{
				"type": "object", "title": "Created by", "x-component": "AssociationField",
				"x-component-props": map[string]any{"fieldNames": map[string]any{"label": "nickname", "value": "id"}},
				"x-read-pretty":     true,
			},
		},
		{
			"name": "updatedBy", "interface": "updatedBy", "type": "belongsTo", "target": "users",
			"foreignKey": "updatedById",
			"uiSchema": map[string]any{
				"type": "object", "title": "Updated by", "x-component": "AssociationField",
				"x-component-props": map[string]any{"fieldNames": map[string]any{"label": "nickname", "value": "id"}},
				"x-read-pretty":     true,
			},
		},
	}
	return payloads
}

// relationTypes maps the short relation names accepted by the tools to
// NocoBase field types.
var relationTypes = map[string]string{
	"m2o": "belongsTo", "o2m": "hasMany",
	"m2m": "belongsToMany", "o2o": "hasOne",
}

// RelationFieldType resolves a short relation name ("m2o") to the
// NocoBase field type ("belongsTo"). Unknown names pass through so
// callers can hand raw types directly.
func RelationFieldType(short string) string {
	if t, ok := relationTypes[short]; ok {
		return t
	}
	return short
}
