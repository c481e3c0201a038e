// Package api serves a crudkit Service over HTTP with gin.
package api
