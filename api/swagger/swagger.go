package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "ClassPulse API",
        "description": "Class risk analytics over behaviour logs and gradebooks",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {
            "name": "Classes",
            "description": "Imports and computed class views"
        },
        {
            "name": "Settings",
            "description": "Risk scoring thresholds"
        }
    ],
    "paths": {
        "/classes/{id}/import": {
            "post": {
                "tags": [
                    "Classes"
                ],
                "summary": "Import behaviour and grade exports",
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "413": {
                        "description": "Upload too large",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "415": {
                        "description": "Unsupported file format",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "422": {
                        "description": "No students found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Class ID"
                    },
                    {
                        "name": "behavior",
                        "in": "formData",
                        "type": "file",
                        "description": "Behaviour export (.csv/.xlsx)"
                    },
                    {
                        "name": "grades",
                        "in": "formData",
                        "type": "file",
                        "description": "Gradebook export (.csv/.xlsx)"
                    }
                ],
                "consumes": [
                    "multipart/form-data"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/classes/{id}/students": {
            "get": {
                "tags": [
                    "Classes"
                ],
                "summary": "List computed students",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Class ID"
                    },
                    {
                        "name": "riskLevel",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "high, medium or low"
                    },
                    {
                        "name": "search",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Name or id prefix"
                    },
                    {
                        "name": "subject",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Subject filter"
                    },
                    {
                        "name": "gradeTrend",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "improving, declining or stable"
                    },
                    {
                        "name": "behaviorTrend",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "improving, declining or stable"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "required": false,
                        "type": "integer",
                        "description": "Page"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "type": "integer",
                        "description": "Page size"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/classes/{id}/students/{studentId}": {
            "get": {
                "tags": [
                    "Classes"
                ],
                "summary": "Get one computed student",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Class ID"
                    },
                    {
                        "name": "studentId",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Student ID"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/classes/{id}/students/{studentId}/grades": {
            "post": {
                "tags": [
                    "Classes"
                ],
                "summary": "Record a grade by hand",
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Class ID"
                    },
                    {
                        "name": "studentId",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Student ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateGradeRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/classes/{id}/students/{studentId}/events": {
            "post": {
                "tags": [
                    "Classes"
                ],
                "summary": "Record a behaviour event by hand",
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Class ID"
                    },
                    {
                        "name": "studentId",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Student ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateEventRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/classes/{id}/summary": {
            "get": {
                "tags": [
                    "Classes"
                ],
                "summary": "Class summary",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Class ID"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/classes/{id}/period": {
            "get": {
                "tags": [
                    "Classes"
                ],
                "summary": "Class view over a date range",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Class ID"
                    },
                    {
                        "name": "from",
                        "in": "query",
                        "required": true,
                        "type": "string",
                        "description": "Start date (YYYY-MM-DD)"
                    },
                    {
                        "name": "to",
                        "in": "query",
                        "required": true,
                        "type": "string",
                        "description": "End date (YYYY-MM-DD)"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/classes/{id}/compare": {
            "get": {
                "tags": [
                    "Classes"
                ],
                "summary": "Compare two periods",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Class ID"
                    },
                    {
                        "name": "from",
                        "in": "query",
                        "required": true,
                        "type": "string",
                        "description": "Current start"
                    },
                    {
                        "name": "to",
                        "in": "query",
                        "required": true,
                        "type": "string",
                        "description": "Current end"
                    },
                    {
                        "name": "prevFrom",
                        "in": "query",
                        "required": true,
                        "type": "string",
                        "description": "Previous start"
                    },
                    {
                        "name": "prevTo",
                        "in": "query",
                        "required": true,
                        "type": "string",
                        "description": "Previous end"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/classes/{id}/report": {
            "get": {
                "tags": [
                    "Classes"
                ],
                "summary": "Download the risk report",
                "produces": [
                    "text/csv",
                    "application/pdf"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Class ID"
                    },
                    {
                        "name": "format",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "csv (default) or pdf"
                    },
                    {
                        "name": "from",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Start date"
                    },
                    {
                        "name": "to",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "End date"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Report file",
                        "schema": {
                            "type": "file"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/classes/{id}/settings": {
            "get": {
                "tags": [
                    "Settings"
                ],
                "summary": "Effective risk settings of a class",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Class ID"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "put": {
                "tags": [
                    "Settings"
                ],
                "summary": "Override risk settings for a class",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Class ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/RiskSettings"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Settings"
                ],
                "summary": "Remove a class override",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Class ID"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/settings": {
            "get": {
                "tags": [
                    "Settings"
                ],
                "summary": "Global risk settings",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "put": {
                "tags": [
                    "Settings"
                ],
                "summary": "Replace global risk settings (ADMIN)",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/RiskSettings"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        }
    },
    "definitions": {
        "RiskWeights": {
            "type": "object",
            "properties": {
                "grades": {
                    "type": "number"
                },
                "absences": {
                    "type": "number"
                },
                "negativeEvents": {
                    "type": "number"
                }
            }
        },
        "RiskSettings": {
            "type": "object",
            "properties": {
                "minGradeThreshold": {
                    "type": "number"
                },
                "maxNegativeBehaviors": {
                    "type": "integer"
                },
                "attendanceThreshold": {
                    "type": "integer"
                },
                "riskScoreHighThreshold": {
                    "type": "number"
                },
                "riskScoreMediumThreshold": {
                    "type": "number"
                },
                "weights": {
                    "$ref": "#/definitions/RiskWeights"
                },
                "penaltyPerAbsenceAboveThreshold": {
                    "type": "number"
                }
            }
        },
        "CreateGradeRequest": {
            "type": "object",
            "required": [
                "date"
            ],
            "properties": {
                "studentName": {
                    "type": "string"
                },
                "subject": {
                    "type": "string"
                },
                "teacher": {
                    "type": "string"
                },
                "assignment": {
                    "type": "string"
                },
                "date": {
                    "type": "string"
                },
                "score": {
                    "type": "number"
                },
                "weight": {
                    "type": "number"
                }
            }
        },
        "CreateEventRequest": {
            "type": "object",
            "required": [
                "type",
                "date"
            ],
            "properties": {
                "studentName": {
                    "type": "string"
                },
                "type": {
                    "type": "string"
                },
                "category": {
                    "type": "string",
                    "enum": [
                        "POSITIVE",
                        "NEGATIVE",
                        "NEUTRAL"
                    ]
                },
                "date": {
                    "type": "string"
                },
                "teacher": {
                    "type": "string"
                },
                "subject": {
                    "type": "string"
                },
                "lessonNumber": {
                    "type": "integer"
                },
                "justification": {
                    "type": "string"
                },
                "comment": {
                    "type": "string"
                }
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total_count": {
                    "type": "integer"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "pagination": {
                    "$ref": "#/definitions/Pagination"
                },
                "meta": {
                    "type": "object"
                }
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
