package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the CellStatus Platform API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "CellStatus Platform API",
			"description": "Manufacturing floor status and reporting platform: machine/operator/maintenance/production CRUD, value stream map metrics and SPC statistics",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "CellStatus Platform Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/machines": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List machines",
					"description": "Retrieve machines with pagination",
					"parameters":  paginationParams(),
					"responses":   paginatedResponse(machineSchema()),
				},
				"post": map[string]interface{}{
					"summary":     "Create machine",
					"description": "Register a new machine",
					"requestBody": jsonBody(machineSchema()),
					"responses": map[string]interface{}{
						"201": map[string]interface{}{"description": "Machine created"},
						"400": map[string]interface{}{"description": "Invalid request body"},
					},
				},
			},
			"/api/machines/{id}": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":    "Get machine",
					"parameters": []map[string]interface{}{pathParam("id", "Machine ID")},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Successful response"},
						"404": map[string]interface{}{"description": "Machine not found"},
					},
				},
				"put": map[string]interface{}{
					"summary":     "Update machine",
					"parameters":  []map[string]interface{}{pathParam("id", "Machine ID")},
					"requestBody": jsonBody(machineSchema()),
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Machine updated"},
						"404": map[string]interface{}{"description": "Machine not found"},
					},
				},
				"delete": map[string]interface{}{
					"summary":    "Delete machine",
					"parameters": []map[string]interface{}{pathParam("id", "Machine ID")},
					"responses": map[string]interface{}{
						"204": map[string]interface{}{"description": "Machine deleted"},
						"404": map[string]interface{}{"description": "Machine not found"},
					},
				},
			},
			"/api/operators": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":    "List operators",
					"parameters": paginationParams(),
					"responses":  paginatedResponse(map[string]interface{}{"type": "object"}),
				},
				"post": map[string]interface{}{
					"summary": "Create operator",
					"responses": map[string]interface{}{
						"201": map[string]interface{}{"description": "Operator created"},
					},
				},
			},
			"/api/maintenance": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "List maintenance logs",
					"parameters": append(paginationParams(),
						queryParam("machine_id", "Filter by machine", "string"),
						queryParam("since", "Only logs since this date (YYYY-MM-DD)", "string"),
					),
					"responses": paginatedResponse(map[string]interface{}{"type": "object"}),
				},
				"post": map[string]interface{}{
					"summary": "Record maintenance event",
					"responses": map[string]interface{}{
						"201": map[string]interface{}{"description": "Maintenance log created"},
					},
				},
			},
			"/api/production": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "List production records",
					"parameters": append(paginationParams(),
						queryParam("machine_id", "Filter by machine", "string"),
						queryParam("start_day", "Start of day range (YYYY-MM-DD)", "string"),
						queryParam("end_day", "End of day range (YYYY-MM-DD)", "string"),
					),
					"responses": paginatedResponse(map[string]interface{}{"type": "object"}),
				},
				"post": map[string]interface{}{
					"summary": "Record shift production counts",
					"responses": map[string]interface{}{
						"201": map[string]interface{}{"description": "Production record created"},
					},
				},
			},
			"/api/findings": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":    "List audit findings",
					"parameters": paginationParams(),
					"responses":  paginatedResponse(map[string]interface{}{"type": "object"}),
				},
				"post": map[string]interface{}{
					"summary": "Record audit finding",
					"responses": map[string]interface{}{
						"201": map[string]interface{}{"description": "Audit finding created"},
					},
				},
			},
			"/api/vsm/compute": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Compute value stream metrics",
					"description": "Derive per-station and summary flow metrics (effective cycle time, throughput, bottleneck, takt, utilization, wait time, lead time, efficiency) from a station document",
					"parameters": []map[string]interface{}{
						queryParam("grouped_wait", "Compute wait time between process-step groups instead of raw adjacent stations", "boolean"),
					},
					"requestBody": jsonBody(vsmDocumentSchema()),
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Per-station metrics plus summary"},
						"400": map[string]interface{}{"description": "Station invariant violated"},
					},
				},
			},
			"/api/vsm/configs": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":    "List saved value stream configurations",
					"parameters": paginationParams(),
					"responses":  paginatedResponse(map[string]interface{}{"type": "object"}),
				},
			},
			"/api/vsm/configs/{name}": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":    "Load a configuration and compute its metrics",
					"parameters": []map[string]interface{}{pathParam("name", "Configuration name")},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Stored document plus computed result"},
						"404": map[string]interface{}{"description": "Configuration not found"},
					},
				},
				"post": map[string]interface{}{
					"summary":     "Save a value stream configuration",
					"parameters":  []map[string]interface{}{pathParam("name", "Configuration name")},
					"requestBody": jsonBody(vsmDocumentSchema()),
					"responses": map[string]interface{}{
						"201": map[string]interface{}{"description": "Configuration saved"},
						"400": map[string]interface{}{"description": "Station invariant violated"},
					},
				},
			},
			"/api/spc/stats": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get SPC statistics",
					"description": "Descriptive statistics, capability indices, histogram bins and run-chart series for one characteristic group. Undefined indices are null.",
					"parameters":  spcParams(),
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Statistics and chart series"},
						"400": map[string]interface{}{"description": "Missing part_number or characteristic"},
					},
				},
			},
			"/api/spc/report": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Printable SPC report",
					"description": "Standalone HTML page with inline SVG run chart and histogram",
					"parameters":  spcParams(),
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "HTML report"},
					},
				},
			},
			"/api/spc/export": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":    "Export measurements as CSV",
					"parameters": spcParams(),
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "CSV download"},
					},
				},
			},
			"/api/spc/limits": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Get specification limits",
					"parameters": []map[string]interface{}{
						queryParam("part_number", "Part number", "string"),
						queryParam("characteristic", "Characteristic name", "string"),
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Stored limits (empty object when none recorded)"},
					},
				},
				"put": map[string]interface{}{
					"summary":     "Set specification limits",
					"description": "Store tolerance bounds for a characteristic. A lower limit of 0 is interpreted as 'no lower limit' when statistics are computed.",
					"parameters": []map[string]interface{}{
						queryParam("part_number", "Part number", "string"),
						queryParam("characteristic", "Characteristic name", "string"),
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Limits stored"},
						"400": map[string]interface{}{"description": "usl below lsl"},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Check if the API is running",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "API is healthy"},
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Prometheus metrics in text format"},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}

func paginationParams() []map[string]interface{} {
	return []map[string]interface{}{
		queryParam("page", "Page number (default: 1)", "integer"),
		queryParam("limit", "Records per page (default: 100)", "integer"),
	}
}

func spcParams() []map[string]interface{} {
	return []map[string]interface{}{
		{
			"name":        "part_number",
			"in":          "query",
			"description": "Part number of the characteristic group",
			"required":    true,
			"schema":      map[string]string{"type": "string"},
		},
		{
			"name":        "characteristic",
			"in":          "query",
			"description": "Characteristic name",
			"required":    true,
			"schema":      map[string]string{"type": "string"},
		},
		queryParam("machine_id", "Filter by machine", "string"),
		queryParam("start", "Start of time range (RFC 3339)", "string"),
		queryParam("end", "End of time range (RFC 3339)", "string"),
	}
}

func paginatedResponse(itemSchema map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"200": map[string]interface{}{
			"description": "Successful response",
			"content": map[string]interface{}{
				"application/json": map[string]interface{}{
					"schema": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"data": map[string]interface{}{
								"type":  "array",
								"items": itemSchema,
							},
							"total":       map[string]string{"type": "integer"},
							"page":        map[string]string{"type": "integer"},
							"limit":       map[string]string{"type": "integer"},
							"total_pages": map[string]string{"type": "integer"},
						},
					},
				},
			},
		},
	}
}

func queryParam(name, description, typ string) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"in":          "query",
		"description": description,
		"required":    false,
		"schema":      map[string]string{"type": typ},
	}
}

func pathParam(name, description string) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"in":          "path",
		"description": description,
		"required":    true,
		"schema":      map[string]string{"type": "string"},
	}
}

func jsonBody(schema map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"required": true,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{
				"schema": schema,
			},
		},
	}
}

func machineSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id":         map[string]string{"type": "string"},
			"name":       map[string]string{"type": "string"},
			"area":       map[string]string{"type": "string"},
			"status":     map[string]string{"type": "string"},
			"cycle_time": map[string]interface{}{"type": "number", "nullable": true},
			"setup_time": map[string]interface{}{"type": "number", "nullable": true},
		},
	}
}

func vsmDocumentSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"stations": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"id":            map[string]string{"type": "string"},
						"machineId":     map[string]interface{}{"type": "string", "nullable": true},
						"name":          map[string]string{"type": "string"},
						"cycleTime":     map[string]string{"type": "number"},
						"setupTime":     map[string]string{"type": "number"},
						"batchSize":     map[string]string{"type": "number"},
						"operators":     map[string]string{"type": "number"},
						"uptimePercent": map[string]string{"type": "number"},
						"processStep":   map[string]string{"type": "integer"},
					},
				},
			},
			"operationNames": map[string]interface{}{
				"type":                 "object",
				"additionalProperties": map[string]string{"type": "string"},
			},
			"rawMaterialUPH": map[string]string{"type": "number"},
		},
	}
}
