package main

import (
	"net/http"

	"github.com/FDXFinanzas1/inventario-ciego/models"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		info, err := models.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			if statusFor(err) == http.StatusUnauthorized {
				c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Credenciales invalidas"})
				return
			}
			respondError(c, "loginHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "user": info})
	}
}

func logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := models.Logout(c.Request.Context())
		if err != nil {
			respondError(c, "logoutHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": ok})
	}
}

func saveUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.NewUser
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		user, created, err := models.SaveUser(c.Request.Context(), &req)
		if err != nil {
			respondError(c, "saveUserHandler", err)
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		c.JSON(status, user)
	}
}
