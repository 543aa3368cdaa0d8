package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/wwtech/onboarding-backend/internal/middleware"
	"github.com/wwtech/onboarding-backend/internal/models"
	"github.com/wwtech/onboarding-backend/pkg/jwt"
)

// Router bundles the handlers mounted under /api
type Router struct {
	Auth     *AuthHandler
	Admin    *AdminHandler
	Employee *EmployeeHandler
	Public   *PublicHandler
}

// Register mounts every route on api. Admin and employee groups sit behind the
// session token check and a role guard; public routes are open.
func (r *Router) Register(api *gin.RouterGroup, jwtService *jwt.Service, logger *logrus.Logger) {
	authenticate := middleware.AuthMiddleware(jwtService, logger)

	auth := api.Group("/auth")
	{
		auth.POST("/login", r.Auth.Login)
		auth.GET("/me", authenticate, r.Auth.Me)
	}

	admin := api.Group("/admin", authenticate, middleware.RequireRole(models.RoleAdmin))
	{
		admin.POST("/candidates", r.Admin.CreateCandidate)
		admin.POST("/candidates/bulk", r.Admin.BulkCreateCandidates)
		admin.GET("/candidates", r.Admin.ListCandidates)
		admin.POST("/candidates/:id/send-offer", r.Admin.SendOffer)
		admin.POST("/candidates/:id/send-joining-details", r.Admin.SendJoiningDetails)

		admin.GET("/joining-requests", r.Admin.ListJoiningRequests)
		admin.GET("/joining-requests/:id", r.Admin.GetJoiningRequest)
		admin.POST("/joining-requests/:id/review", r.Admin.ReviewJoiningRequest)
		admin.PUT("/joining-requests/:id/edit-details", r.Admin.EditJoiningDetails)

		admin.GET("/employees", r.Admin.ListEmployees)
		admin.GET("/dashboard-stats", r.Admin.DashboardStats)
	}

	employee := api.Group("/employee", authenticate, middleware.RequireRole(models.RoleEmployee))
	{
		employee.GET("/joining-request", r.Employee.GetJoiningRequest)
		employee.POST("/submit-joining-form", r.Employee.SubmitJoiningForm)
	}

	public := api.Group("/public")
	{
		public.GET("/verify-offer/:token", r.Public.VerifyOffer)
		public.POST("/accept-offer/:token", r.Public.AcceptOffer)
	}
}
