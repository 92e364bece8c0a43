package models

// Response is the envelope every file operation resolves to.
// Data is nil on validation failures and failed listings, false on failed
// mutations.
type Response struct {
	Error  *string     `json:"error"`
	Stderr *string     `json:"stderr"`
	Data   interface{} `json:"data"`

	// Err is the failure behind Error, kept for status mapping
	Err error `json:"-"`
}

// OK reports whether the response carries no error
func (r Response) OK() bool {
	return r.Error == nil
}

// NewDataResponse creates a successful response
func NewDataResponse(data interface{}) Response {
	return Response{Data: data}
}

// NewErrorResponse creates a failed response
func NewErrorResponse(err string, stderr string, data interface{}) Response {
	resp := Response{
		Error: &err,
		Data:  data,
	}
	if stderr != "" {
		resp.Stderr = &stderr
	}
	return resp
}
