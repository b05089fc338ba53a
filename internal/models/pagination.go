package models

// Page is the list envelope returned by paginated endpoints. Next and
// Previous are absolute URLs preserving the request's other query params,
// null at the first and last page respectively.
type Page struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}
