// path: models/responses.go
package models

// LocateRequest is the request body for POST /api/locate.
type LocateRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LocateResponse is the response body for POST /api/locate.
type LocateResponse struct {
	Label     string `json:"label"`
	AreaLabel string `json:"area_label"`
}

// StatusUpdate is the JSON body for PATCH /api/reports/:id/status.
type StatusUpdate struct {
	Status string `json:"status"`
}

// VolunteerPayload is the JSON body for POST /api/volunteers.
type VolunteerPayload struct {
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Interests []string `json:"interests"`
}

// ErrorResp is the body of every non-2xx API answer.
type ErrorResp struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
