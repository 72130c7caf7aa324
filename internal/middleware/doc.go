// Package middleware provides HTTP middleware for the operational endpoints.
package middleware
