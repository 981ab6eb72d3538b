package servicelog

import "time"

type ServiceLog struct {
	ID          int64     `json:"id"`
	EngineerID  int64     `json:"engineer_id"`
	ClientID    int64     `json:"client_id"`
	Description string    `json:"description"`
	Lat         float64   `json:"lat"`
	Long        float64   `json:"long"`
	Timestamp   time.Time `json:"timestamp"`
}

// View is the serialized form with the related names resolved at read time.
type View struct {
	ServiceLog
	EngineerName string `json:"engineer_name"`
	ClientName   string `json:"client_name"`
}

// pointers so that a latitude/longitude of 0 still counts as present
type CreateServiceLogRequest struct {
	ClientID    int64    `json:"client_id" binding:"required,min=1"`
	Description string   `json:"description" binding:"required,max=5000"`
	Lat         *float64 `json:"lat" binding:"required,min=-90,max=90"`
	Long        *float64 `json:"long" binding:"required,min=-180,max=180"`
}

func NewFromCreateRequest(engineerID int64, req CreateServiceLogRequest) ServiceLog {
	return ServiceLog{
		EngineerID:  engineerID,
		ClientID:    req.ClientID,
		Description: req.Description,
		Lat:         *req.Lat,
		Long:        *req.Long,
		Timestamp:   time.Now().UTC(),
	}
}
