package soroban

import "fmt"

// OpenAPIDocument is a minimal OpenAPI 3.0 document projection: only the
// fields the registry's public API docs endpoint (pkg/contract) needs
// to render are populated.
type OpenAPIDocument struct {
	OpenAPI    string                 `json:"openapi"`
	Info       OpenAPIInfo            `json:"info"`
	Paths      map[string]OpenAPIPath `json:"paths"`
	Components OpenAPIComponents      `json:"components"`
}

type OpenAPIInfo struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

type OpenAPIPath struct {
	Post *OpenAPIOperation `json:"post,omitempty"`
}

type OpenAPIOperation struct {
	OperationID string                      `json:"operationId"`
	Summary     string                      `json:"summary"`
	RequestBody OpenAPIRequestBody          `json:"requestBody"`
	Responses   map[string]OpenAPIResponse  `json:"responses"`
}

type OpenAPIRequestBody struct {
	Required bool                      `json:"required"`
	Content  map[string]OpenAPIContent `json:"content"`
}

type OpenAPIResponse struct {
	Description string                     `json:"description"`
	Content     map[string]OpenAPIContent  `json:"content,omitempty"`
}

type OpenAPIContent struct {
	Schema OpenAPISchema `json:"schema"`
}

type OpenAPIComponents struct {
	Schemas map[string]OpenAPISchema `json:"schemas"`
}

// OpenAPISchema is a minimal JSON Schema projection of a SorobanType.
type OpenAPISchema struct {
	Ref                  string                   `json:"$ref,omitempty"`
	Type                 string                   `json:"type,omitempty"`
	Format               string                   `json:"format,omitempty"`
	Nullable             bool                     `json:"nullable,omitempty"`
	Items                *OpenAPISchema           `json:"items,omitempty"`
	AdditionalProperties *OpenAPISchema           `json:"additionalProperties,omitempty"`
	Properties           map[string]OpenAPISchema `json:"properties,omitempty"`
	Required             []string                 `json:"required,omitempty"`
	Enum                 []string                 `json:"enum,omitempty"`
	OneOf                []OpenAPISchema          `json:"oneOf,omitempty"`
	Description          string                   `json:"description,omitempty"`
}

// ToOpenAPI projects an ABI into an OpenAPI 3.0 document: one POST path per
// public function, with every struct/enum in the ABI's type table promoted to
// a named $ref component.
func (a *ABI) ToOpenAPI() OpenAPIDocument {
	doc := OpenAPIDocument{
		OpenAPI: "3.0.3",
		Info: OpenAPIInfo{
			Title:   fmt.Sprintf("%s contract API", a.Name),
			Version: a.Version,
		},
		Paths: make(map[string]OpenAPIPath),
		Components: OpenAPIComponents{
			Schemas: make(map[string]OpenAPISchema),
		},
	}

	for name, t := range a.Types {
		doc.Components.Schemas[name] = schemaForNamedType(t)
	}

	for _, fn := range a.Functions {
		if !fn.Public {
			continue
		}
		doc.Paths["/invoke/"+fn.Name] = OpenAPIPath{
			Post: &OpenAPIOperation{
				OperationID: fn.Name,
				Summary:     fmt.Sprintf("Invoke %s", fn.Name),
				RequestBody: OpenAPIRequestBody{
					Required: true,
					Content: map[string]OpenAPIContent{
						"application/json": {Schema: paramsSchema(fn.Params)},
					},
				},
				Responses: map[string]OpenAPIResponse{
					"200": {
						Description: "success",
						Content: map[string]OpenAPIContent{
							"application/json": {Schema: projectType(fn.Return)},
						},
					},
				},
			},
		}
	}

	return doc
}

func paramsSchema(params []Param) OpenAPISchema {
	props := make(map[string]OpenAPISchema, len(params))
	required := make([]string, 0, len(params))
	for _, p := range params {
		props[p.Name] = projectType(p.Type)
		required = append(required, p.Name)
	}
	return OpenAPISchema{Type: "object", Properties: props, Required: required}
}

// schemaForNamedType projects a struct or enum's own body (not a $ref to
// itself) for use as a component definition.
func schemaForNamedType(t Type) OpenAPISchema {
	switch t.Kind {
	case KindStruct:
		props := make(map[string]OpenAPISchema, len(t.Fields))
		required := make([]string, 0, len(t.Fields))
		for _, f := range t.Fields {
			props[f.Name] = projectType(f.Type)
			required = append(required, f.Name)
		}
		return OpenAPISchema{Type: "object", Properties: props, Required: required}
	case KindEnum:
		names := make([]string, len(t.Variants))
		hasPayload := false
		for i, v := range t.Variants {
			names[i] = v.Name
			if v.Payload != nil {
				hasPayload = true
			}
		}
		if !hasPayload {
			return OpenAPISchema{Type: "string", Enum: names}
		}
		variants := make([]OpenAPISchema, len(t.Variants))
		for i, v := range t.Variants {
			props := map[string]OpenAPISchema{"variant": {Type: "string", Enum: []string{v.Name}}}
			if v.Payload != nil {
				props["payload"] = projectType(*v.Payload)
			}
			variants[i] = OpenAPISchema{Type: "object", Properties: props, Required: []string{"variant"}}
		}
		return OpenAPISchema{OneOf: variants}
	default:
		return projectType(t)
	}
}

// projectType renders a SorobanType as an inline OpenAPI schema, or a $ref
// when it is a named struct/enum/custom reference.
func projectType(t Type) OpenAPISchema {
	switch t.Kind {
	case KindBool:
		return OpenAPISchema{Type: "boolean"}
	case KindI32:
		return OpenAPISchema{Type: "integer", Format: "int32"}
	case KindI64:
		return OpenAPISchema{Type: "integer", Format: "int64"}
	case KindI128, KindI256:
		return OpenAPISchema{Type: "string", Description: string(t.Kind) + " encoded as a decimal string"}
	case KindU32:
		return OpenAPISchema{Type: "integer", Format: "int32", Description: "unsigned"}
	case KindU64:
		return OpenAPISchema{Type: "integer", Format: "int64", Description: "unsigned"}
	case KindU128, KindU256:
		return OpenAPISchema{Type: "string", Description: string(t.Kind) + " encoded as a decimal string"}
	case KindSymbol:
		return OpenAPISchema{Type: "string", Description: "symbol"}
	case KindString:
		return OpenAPISchema{Type: "string"}
	case KindBytes:
		return OpenAPISchema{Type: "string", Format: "hex"}
	case KindBytesN:
		return OpenAPISchema{Type: "string", Format: "hex", Description: fmt.Sprintf("exactly %d bytes", t.N)}
	case KindAddress:
		return OpenAPISchema{Type: "string", Description: "contract or account address"}
	case KindTimepoint:
		return OpenAPISchema{Type: "integer", Format: "int64", Description: "unix seconds"}
	case KindDuration:
		return OpenAPISchema{Type: "integer", Format: "int64", Description: "seconds"}
	case KindVoid:
		return OpenAPISchema{}
	case KindOption:
		inner := projectType(*t.Elem)
		inner.Nullable = true
		return inner
	case KindVec:
		elem := projectType(*t.Elem)
		return OpenAPISchema{Type: "array", Items: &elem}
	case KindMap:
		value := projectType(*t.Value)
		return OpenAPISchema{Type: "object", AdditionalProperties: &value}
	case KindTuple:
		items := make([]OpenAPISchema, len(t.Elems))
		for i, e := range t.Elems {
			items[i] = projectType(e)
		}
		return OpenAPISchema{Type: "array", Description: "tuple", OneOf: items}
	case KindResult:
		ok := projectType(*t.Ok)
		errT := projectType(*t.Err)
		return OpenAPISchema{OneOf: []OpenAPISchema{ok, errT}}
	case KindStruct, KindEnum:
		return OpenAPISchema{Ref: "#/components/schemas/" + t.Name}
	case KindCustom:
		return OpenAPISchema{Ref: "#/components/schemas/" + t.Name}
	default:
		panic(fmt.Sprintf("soroban: projectType: unhandled kind %q", t.Kind))
	}
}
