// Package docs registers the OpenAPI document served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/flights": {
            "get": {
                "tags": ["flights"],
                "summary": "List upcoming flights",
                "parameters": [
                    {"type": "string", "name": "from_city", "in": "query"},
                    {"type": "string", "name": "to_city", "in": "query"},
                    {"type": "string", "format": "date", "name": "date", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Flight"}}},
                    "500": {"description": "Server error", "schema": {"$ref": "#/definitions/Error"}}
                }
            },
            "post": {
                "tags": ["flights"],
                "summary": "Create a flight",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "flight", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FlightInput"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Flight"}},
                    "400": {"description": "Invalid input", "schema": {"$ref": "#/definitions/Error"}},
                    "409": {"description": "Duplicate id or schedule conflict", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/flights/admin/all": {
            "get": {
                "tags": ["flights"],
                "summary": "List all flights including past ones",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"type": "string", "name": "from_city", "in": "query"},
                    {"type": "string", "name": "to_city", "in": "query"},
                    {"type": "string", "format": "date", "name": "date", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Flight"}}}}
            }
        },
        "/flights/{id}": {
            "get": {
                "tags": ["flights"],
                "summary": "Get a flight",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Flight"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/Error"}}
                }
            },
            "put": {
                "tags": ["flights"],
                "summary": "Update a flight",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "flight", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FlightInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Flight"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/Error"}},
                    "409": {"description": "Schedule conflict or capacity below booked seats", "schema": {"$ref": "#/definitions/Error"}}
                }
            },
            "delete": {
                "tags": ["flights"],
                "summary": "Delete or force-cancel a flight",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "boolean", "name": "force", "in": "query"},
                    {"type": "integer", "name": "expected_booked", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Deleted", "schema": {"$ref": "#/definitions/DeleteResult"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/Error"}},
                    "409": {"description": "Past flight or confirmation required", "schema": {"$ref": "#/definitions/ForceRequired"}}
                }
            }
        },
        "/flights/{id}/seats": {
            "patch": {
                "tags": ["flights"],
                "summary": "Resize a flight's capacity",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "seats", "in": "body", "required": true, "schema": {"type": "object", "properties": {"seats_total": {"type": "integer"}}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Flight"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/Error"}},
                    "409": {"description": "Capacity below booked seats", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/cities": {
            "get": {
                "tags": ["cities"],
                "summary": "City registry ordered by name",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/City"}}}}
            },
            "post": {
                "tags": ["cities"],
                "summary": "Register a city",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "city", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CityInput"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/City"}},
                    "409": {"description": "City already exists", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/tickets": {
            "post": {
                "tags": ["tickets"],
                "summary": "Book a seat",
                "parameters": [
                    {"type": "string", "name": "Idempotency-Key", "in": "header"},
                    {"name": "ticket", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BookingInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Ticket"}},
                    "400": {"description": "Invalid input", "schema": {"$ref": "#/definitions/Error"}},
                    "404": {"description": "Flight not found", "schema": {"$ref": "#/definitions/Error"}},
                    "409": {"description": "No seats available", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/tickets/by-email/{email}": {
            "get": {
                "tags": ["tickets"],
                "summary": "Tickets of a passenger",
                "parameters": [{"type": "string", "name": "email", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Ticket"}}}}
            }
        },
        "/tickets/ticket/{id}": {
            "get": {
                "tags": ["tickets"],
                "summary": "Get a ticket",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Ticket"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/admin/tickets": {
            "get": {
                "tags": ["admin"],
                "summary": "All tickets",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Ticket"}}}}
            }
        },
        "/admin/update-tickets": {
            "post": {
                "tags": ["admin"],
                "summary": "Backfill flight snapshots onto tickets",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/BackfillReport"}}}
            }
        }
    },
    "definitions": {
        "Error": {"type": "object", "properties": {"message": {"type": "string"}}},
        "CityInput": {"type": "object", "required": ["city_id", "city_name"], "properties": {"city_id": {"type": "string"}, "city_name": {"type": "string"}}},
        "City": {
            "type": "object",
            "properties": {
                "city_id": {"type": "string"},
                "city_name": {"type": "string"},
                "created_at": {"type": "string", "format": "date-time"}
            }
        },
        "ForceRequired": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "requiresForce": {"type": "boolean"},
                "bookedSeats": {"type": "integer"},
                "flightDeparture": {"type": "string", "format": "date-time"},
                "currentTime": {"type": "string", "format": "date-time"}
            }
        },
        "DeleteResult": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "affectedPassengers": {"type": "integer"},
                "cancelledTickets": {"type": "integer"},
                "warning": {"type": "string"}
            }
        },
        "FlightInput": {
            "type": "object",
            "required": ["from_city", "to_city", "departure_time", "arrival_time", "price", "seats_total"],
            "properties": {
                "flight_id": {"type": "string"},
                "from_city": {"type": "string"},
                "to_city": {"type": "string"},
                "departure_time": {"type": "string", "format": "date-time"},
                "arrival_time": {"type": "string", "format": "date-time"},
                "price": {"type": "number"},
                "seats_total": {"type": "integer"}
            }
        },
        "Flight": {
            "type": "object",
            "properties": {
                "flight_id": {"type": "string"},
                "from_city": {"type": "string"},
                "to_city": {"type": "string"},
                "departure_time": {"type": "string", "format": "date-time"},
                "arrival_time": {"type": "string", "format": "date-time"},
                "price": {"type": "number"},
                "seats_total": {"type": "integer"},
                "seats_available": {"type": "integer"}
            }
        },
        "BookingInput": {
            "type": "object",
            "required": ["passenger_name", "passenger_surname", "passenger_email", "flight_id"],
            "properties": {
                "passenger_name": {"type": "string"},
                "passenger_surname": {"type": "string"},
                "passenger_email": {"type": "string"},
                "flight_id": {"type": "string"},
                "seat_number": {"type": "string"}
            }
        },
        "Ticket": {
            "type": "object",
            "properties": {
                "ticket_id": {"type": "string"},
                "passenger_name": {"type": "string"},
                "passenger_surname": {"type": "string"},
                "passenger_email": {"type": "string"},
                "flight_id": {"type": "string"},
                "seat_number": {"type": "string"},
                "status": {"type": "string", "enum": ["confirmed", "cancelled"]},
                "cancellation_reason": {"type": "string"},
                "cancelled_at": {"type": "string", "format": "date-time"},
                "booking_date": {"type": "string", "format": "date-time"},
                "flight_from": {"type": "string"},
                "flight_to": {"type": "string"},
                "flight_departure_time": {"type": "string", "format": "date-time"},
                "flight_arrival_time": {"type": "string", "format": "date-time"},
                "flight_price": {"type": "number"},
                "flight": {"$ref": "#/definitions/Flight"},
                "flight_details": {"$ref": "#/definitions/Flight"}
            }
        },
        "BackfillReport": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "updated": {"type": "integer"},
                "failed": {"type": "integer"},
                "total": {"type": "integer"},
                "results": {"type": "array", "items": {"type": "object"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "HappyFlights API",
	Description:      "Flight search, booking and flight administration.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
