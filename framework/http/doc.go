// Package http provides the JSON response helpers used by the admin routes.
//
//	res := gohttp.NewResponse(w)
//
//	res.JSON(200, data)            // raw JSON with status
//	res.Success(data)              // 200 {"data": ...}
//	res.NoContent()                // 204
//
//	res.Error(409, "not ready")    // {"message": "not ready"}
//	res.NotFound()                 // 404 {"message": "Not found."}
//	res.Unavailable()              // 503 {"message": "Service unavailable."}
package http
