package handler

import "github.com/gin-gonic/gin"

// Handlers bundles the API handlers mounted under the API prefix.
type Handlers struct {
	Gradebooks *GradebookHandler
	Grades     *GradeHandler
	Properties *PropertyHandler
}

// RegisterRoutes mounts the gradebook API on the group.
func RegisterRoutes(api *gin.RouterGroup, h Handlers) {
	gradebooks := api.Group("/gradebooks")
	gradebooks.POST("", h.Gradebooks.Create)
	gradebooks.GET("/:id", h.Gradebooks.Get)
	gradebooks.PUT("/:id", h.Gradebooks.Update)
	gradebooks.GET("/:id/grade-mappings", h.Gradebooks.ListMappings)
	gradebooks.GET("/:id/course-grade-overrides", h.Gradebooks.OverridesExist)

	gradebooks.GET("/:id/categories", h.Gradebooks.ListCategories)
	gradebooks.POST("/:id/categories", h.Gradebooks.CreateCategory)
	gradebooks.PUT("/:id/categories/:categoryId", h.Gradebooks.UpdateCategory)
	gradebooks.DELETE("/:id/categories/:categoryId", h.Gradebooks.RemoveCategory)

	gradebooks.GET("/:id/assignments", h.Gradebooks.ListAssignments)
	gradebooks.POST("/:id/assignments", h.Gradebooks.CreateAssignment)
	gradebooks.PUT("/:id/assignments/:assignmentId", h.Gradebooks.UpdateAssignment)
	gradebooks.DELETE("/:id/assignments/:assignmentId", h.Gradebooks.RemoveAssignment)
	gradebooks.PUT("/:id/assignments/:assignmentId/scores/:studentId", h.Gradebooks.SetScore)

	gradebooks.GET("/:id/students", h.Gradebooks.ListStudents)
	gradebooks.PUT("/:id/students/:studentId", h.Gradebooks.EnrollStudent)
	gradebooks.GET("/:id/students/:studentId/summary", h.Grades.Summary)
	gradebooks.GET("/:id/students/:studentId/view", h.Grades.StudentView)
	gradebooks.PUT("/:id/students/:studentId/course-grade", h.Gradebooks.SetCourseGrade)
	gradebooks.DELETE("/:id/students/:studentId/course-grade", h.Gradebooks.ClearCourseGrade)
	gradebooks.GET("/:id/roster", h.Grades.Roster)

	properties := api.Group("/properties")
	properties.GET("", h.Properties.List)
	properties.PUT("/:name", h.Properties.Update)
	properties.POST("/refresh", h.Properties.Refresh)
}
