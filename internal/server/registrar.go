package server

import "github.com/gin-gonic/gin"

// Registrar is the common interface all service route registrars implement.
type Registrar interface {
	Register(r *gin.RouterGroup)
}
