package request

// ByIDRequest binds the :id path parameter of single-resource endpoints.
type ByIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}
