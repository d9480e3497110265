package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/curatime/portal/internal/notify"
	"github.com/curatime/portal/internal/portal"
)

// @Summary Doctor dashboard
// @Tags views
// @Produce json
// @Success 200 {object} DataResponse
// @Failure 401 {object} RedirectResponse
// @Router /view/doctor/dashboard [get]
func (s *Server) doctorDashboard(c *gin.Context) {
	dashboard, err := s.doctors.Dashboard(c.Request.Context())
	if err != nil {
		s.respondAPIError(c, viewPath(c), err)
		return
	}
	respondData(c, http.StatusOK, dashboard)
}

// @Summary Doctor profile
// @Tags views
// @Produce json
// @Success 200 {object} DataResponse
// @Router /view/doctor/profile [get]
func (s *Server) doctorProfile(c *gin.Context) {
	profile, err := s.doctors.Me(c.Request.Context())
	if err != nil {
		s.respondAPIError(c, viewPath(c), err)
		return
	}
	respondData(c, http.StatusOK, profile)
}

// @Summary Update doctor profile
// @Description An empty password keeps the current one
// @Tags views
// @Accept json
// @Produce json
// @Param request body portal.DoctorProfileUpdate true "Profile form"
// @Success 200 {object} DataResponse
// @Router /view/doctor/profile [put]
func (s *Server) updateDoctorProfile(c *gin.Context) {
	var update portal.DoctorProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Toasts: toasts(c)})
		return
	}

	ctx := c.Request.Context()
	profile, err := s.doctors.UpdateMe(ctx, update)
	if err != nil {
		s.respondAPIError(c, viewPath(c), err)
		return
	}

	notify.Success(ctx, s.notifier, "Profil médecin mis à jour")
	respondData(c, http.StatusOK, profile)
}

// @Summary Upload doctor photo
// @Tags views
// @Accept multipart/form-data
// @Produce json
// @Param photo formData file true "Photo"
// @Success 200 {object} DataResponse
// @Router /view/doctor/profile/photo [post]
func (s *Server) uploadDoctorPhoto(c *gin.Context) {
	header, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "photo file is required", Toasts: toasts(c)})
		return
	}
	file, err := header.Open()
	if err != nil {
		respondWithError(c, s.logger, http.StatusBadRequest, err, "Failed to read photo")
		return
	}
	defer file.Close()

	ctx := c.Request.Context()
	practice, err := s.doctors.UploadPhoto(ctx, header.Filename, file)
	if err != nil {
		s.respondAPIError(c, "/doctor/profile", err)
		return
	}

	notify.Success(ctx, s.notifier, "Photo mise à jour")
	respondData(c, http.StatusOK, practice)
}

// @Summary My appointments
// @Tags views
// @Produce json
// @Success 200 {object} DataResponse
// @Router /view/appointments [get]
func (s *Server) listAppointments(c *gin.Context) {
	appointments, err := s.appointments.List(c.Request.Context())
	if err != nil {
		s.respondAPIError(c, viewPath(c), err)
		return
	}
	respondData(c, http.StatusOK, appointments)
}

// @Summary Cancel appointment
// @Tags views
// @Param id path int true "Appointment ID"
// @Success 200 {object} DataResponse
// @Router /view/appointments/{id} [delete]
func (s *Server) cancelAppointment(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid appointment id", Toasts: toasts(c)})
		return
	}

	ctx := c.Request.Context()
	if err := s.appointments.Cancel(ctx, id); err != nil {
		s.respondAPIError(c, "/appointments", err)
		return
	}

	notify.Success(ctx, s.notifier, "Rendez-vous annulé")
	respondData(c, http.StatusOK, nil)
}

// @Summary Admin dashboard
// @Description Counters are still returned when only the activity feed fails
// @Tags views
// @Produce json
// @Success 200 {object} DataResponse
// @Router /view/admin/dashboard [get]
func (s *Server) adminDashboard(c *gin.Context) {
	dashboard, err := s.admin.Dashboard(c.Request.Context())
	if err != nil {
		if _, redirect := s.guard.Redirect(viewPath(c), err); redirect || dashboard == nil {
			s.respondAPIError(c, viewPath(c), err)
			return
		}
		s.logger.Warn().Err(err).Msg("Admin dashboard served without activities")
	}
	respondData(c, http.StatusOK, dashboard)
}
