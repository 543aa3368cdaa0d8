package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wwtech/onboarding-backend/internal/notification"
	"github.com/wwtech/onboarding-backend/internal/services"
)

func TestOnboardingFlow(t *testing.T) {
	srv := newTestServer(t)

	candidateID := srv.createCandidate(t, "Jane Doe", "jane@x.com")

	w := srv.doMultipart(t, http.MethodPost, "/api/admin/candidates/"+candidateID+"/send-offer", srv.adminToken,
		nil, []formFile{{"document", "offer.pdf", pdfBytes}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sent := decode(t, w)
	assert.Equal(t, "Offer letter sent successfully", sent["message"])
	candidate := sent["candidate"].(map[string]interface{})
	assert.Equal(t, true, candidate["offerSent"])
	assert.NotEmpty(t, candidate["offerDocument"])
	assert.NotContains(t, w.Body.String(), "offerToken\"")

	token := srv.notifier.last(notification.EventOfferSent).OfferToken
	require.Len(t, token, 64)

	w = srv.doJSON(http.MethodGet, "/api/public/verify-offer/"+token, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	verified := decode(t, w)
	assert.Equal(t, true, verified["valid"])
	assert.Equal(t, map[string]interface{}{
		"fullName":      "Jane Doe",
		"position":      "Engineer",
		"practice":      "Engineering",
		"offerAccepted": false,
	}, verified["candidate"])

	w = srv.doJSON(http.MethodPost, "/api/public/accept-offer/"+token, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{
		"fullName": "Jane Doe",
		"position": "Engineer",
		"practice": "Engineering",
	}, decode(t, w)["candidate"])

	w = srv.doJSON(http.MethodPost, "/api/public/accept-offer/"+token, "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Offer already accepted", decode(t, w)["message"])

	w = srv.doJSON(http.MethodPost, "/api/admin/candidates/"+candidateID+"/send-joining-details", srv.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Joining details sent successfully", decode(t, w)["message"])

	password := srv.notifier.last(notification.EventCredentialsSent).TempPassword
	assert.Equal(t, "Jan@WW2025", password)
	employeeToken := srv.login(t, "jane@x.com", password)

	w = srv.doJSON(http.MethodGet, "/api/employee/joining-request", employeeToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	jr := decode(t, w)
	assert.Equal(t, "pending", jr["status"])
	joiningRequestID := jr["_id"].(string)

	w = srv.doMultipart(t, http.MethodPost, "/api/employee/submit-joining-form", employeeToken,
		joiningFormFields(), joiningFormFiles())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	submitted := decode(t, w)
	assert.Equal(t, "Joining form submitted successfully", submitted["message"])
	assert.Equal(t, "submitted", submitted["joiningRequest"].(map[string]interface{})["status"])

	w = srv.doJSON(http.MethodGet, "/api/admin/joining-requests?status=submitted", srv.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	listed := decodeList(t, w)
	require.Len(t, listed, 1)
	assert.Equal(t, joiningRequestID, listed[0]["_id"])
	assert.Equal(t, "jane@x.com", listed[0]["candidate"].(map[string]interface{})["email"])

	w = srv.doJSON(http.MethodPost, "/api/admin/joining-requests/"+joiningRequestID+"/review", srv.adminToken,
		map[string]string{"status": "approved", "remarks": "Welcome aboard"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Joining request approved successfully", decode(t, w)["message"])

	w = srv.doJSON(http.MethodGet, "/api/admin/employees", srv.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	employees := decodeList(t, w)
	require.Len(t, employees, 1)
	assert.Equal(t, "EMP00001", employees[0]["employeeId"])
	assert.Equal(t, "Bengaluru", employees[0]["city"])

	w = srv.doJSON(http.MethodGet, "/api/auth/me", employeeToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w)
	assert.Equal(t, "EMP00001", me["employeeId"])
	assert.Equal(t, true, me["isActive"])
	assert.NotContains(t, me, "passwordHash")

	w = srv.doJSON(http.MethodGet, "/api/admin/dashboard-stats", srv.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{
		"totalCandidates": 1.0,
		"offersAccepted":  1.0,
		"pendingJoining":  0.0,
		"totalEmployees":  1.0,
	}, decode(t, w))

	actions := srv.store.AuditActions()
	for _, action := range []string{
		services.AuditLoginSuccess,
		services.AuditCandidateCreated,
		services.AuditOfferSent,
		services.AuditOfferAccepted,
		services.AuditJoiningDetailsSent,
		services.AuditJoiningFormSubmitted,
		services.AuditJoiningReviewed,
	} {
		assert.Contains(t, actions, action)
	}
}

func TestAuthRoutes(t *testing.T) {
	srv := newTestServer(t)

	t.Run("missing credentials", func(t *testing.T) {
		w := srv.doJSON(http.MethodPost, "/api/auth/login", "", map[string]string{"email": adminEmail})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Please provide email and password", decode(t, w)["message"])
	})

	t.Run("malformed body", func(t *testing.T) {
		w := srv.doJSON(http.MethodPost, "/api/auth/login", "", "not an object")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_REQUEST", decode(t, w)["code"])
	})

	t.Run("wrong password and unknown email look alike", func(t *testing.T) {
		wrong := srv.doJSON(http.MethodPost, "/api/auth/login", "", map[string]string{"email": adminEmail, "password": "nope"})
		unknown := srv.doJSON(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ghost@ww.tech", "password": "nope"})
		assert.Equal(t, http.StatusUnauthorized, wrong.Code)
		assert.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.JSONEq(t, wrong.Body.String(), unknown.Body.String())
		assert.Contains(t, srv.store.AuditActions(), services.AuditLoginFailed)
	})

	t.Run("admin login payload", func(t *testing.T) {
		w := srv.doJSON(http.MethodPost, "/api/auth/login", "", map[string]string{"email": adminEmail, "password": adminPassword})
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, "admin", body["role"])
		assert.Equal(t, adminEmail, body["email"])
		assert.NotEmpty(t, body["token"])
		assert.NotEmpty(t, body["_id"])
	})

	t.Run("me requires a token", func(t *testing.T) {
		w := srv.doJSON(http.MethodGet, "/api/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "MISSING_AUTH_HEADER", decode(t, w)["code"])
	})

	t.Run("admin cannot use employee routes", func(t *testing.T) {
		w := srv.doJSON(http.MethodGet, "/api/employee/joining-request", srv.adminToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("employee cannot use admin routes", func(t *testing.T) {
		_, employeeToken := srv.issueCredentials(t, "Ravi Kumar", "ravi@x.com")
		w := srv.doJSON(http.MethodGet, "/api/admin/candidates", employeeToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "INSUFFICIENT_PERMISSIONS", decode(t, w)["code"])
	})
}

func TestAdminRoutes_Errors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name     string
		method   string
		path     string
		body     interface{}
		wantCode int
		wantMsg  string
	}{
		{"malformed id", http.MethodPost, "/api/admin/candidates/not-a-uuid/send-offer", nil, http.StatusBadRequest, "Invalid ID"},
		{"unknown candidate", http.MethodPost, "/api/admin/candidates/" + uuid.NewString() + "/send-offer", nil, http.StatusNotFound, "Candidate not found"},
		{"unknown joining request", http.MethodGet, "/api/admin/joining-requests/" + uuid.NewString(), nil, http.StatusNotFound, "Joining request not found"},
		{"bad status filter", http.MethodGet, "/api/admin/joining-requests?status=archived", nil, http.StatusBadRequest, "Invalid status filter"},
		{"missing candidate fields", http.MethodPost, "/api/admin/candidates", map[string]string{"fullName": "A"}, http.StatusBadRequest, ""},
		{"invalid review status", http.MethodPost, "/api/admin/joining-requests/" + uuid.NewString() + "/review", map[string]string{"status": "maybe"}, http.StatusBadRequest, "Invalid status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := srv.doJSON(tt.method, tt.path, srv.adminToken, tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, decode(t, w)["message"])
			}
		})
	}

	t.Run("duplicate candidate", func(t *testing.T) {
		srv.createCandidate(t, "Jane Doe", "jane@x.com")
		w := srv.doJSON(http.MethodPost, "/api/admin/candidates", srv.adminToken, map[string]string{
			"fullName": "Jane Again", "email": "JANE@x.com", "phone": "9876543210",
			"practice": "Engineering", "position": "Engineer",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.Equal(t, "Candidate already exists", body["message"])
		assert.Equal(t, "DUPLICATE_EMAIL", body["code"])
	})

	t.Run("joining details before acceptance", func(t *testing.T) {
		id := srv.createCandidate(t, "Asha Rao", "asha@x.com")
		w := srv.doJSON(http.MethodPost, "/api/admin/candidates/"+id+"/send-joining-details", srv.adminToken, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Candidate has not accepted the offer yet", decode(t, w)["message"])
	})

	t.Run("rejected offer document", func(t *testing.T) {
		id := srv.createCandidate(t, "Zed Khan", "zed@x.com")
		w := srv.doMultipart(t, http.MethodPost, "/api/admin/candidates/"+id+"/send-offer", srv.adminToken,
			nil, []formFile{{"document", "offer.exe", []byte("MZ\x90\x00 not a document")}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_FILE", decode(t, w)["code"])
	})

	t.Run("storage failure is opaque", func(t *testing.T) {
		srv.store.FailNext("Candidates.Count", errors.New("connection reset by peer"))
		w := srv.doJSON(http.MethodGet, "/api/admin/dashboard-stats", srv.adminToken, nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Server error", decode(t, w)["message"])
		assert.NotContains(t, w.Body.String(), "connection reset")
	})

	t.Run("invalid offer token", func(t *testing.T) {
		w := srv.doJSON(http.MethodGet, "/api/public/verify-offer/deadbeef", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid or expired offer link", decode(t, w)["message"])
	})
}

func TestBulkCreateCandidates(t *testing.T) {
	srv := newTestServer(t)

	w := srv.doJSON(http.MethodPost, "/api/admin/candidates/bulk", srv.adminToken, map[string]interface{}{
		"candidates": []map[string]string{
			{"fullName": "A One", "email": "a@x.com", "phone": "9876543210", "practice": "Data", "position": "Analyst"},
			{"fullName": "A Dup", "email": "a@x.com", "phone": "9876543211", "practice": "Data", "position": "Analyst"},
			{"fullName": "B Two", "email": "b@x.com", "practice": "Data", "position": "Analyst"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, 3.0, body["total"])
	assert.Equal(t, 1.0, body["succeeded"])
	assert.Equal(t, 2.0, body["failed"])

	results := body["results"].([]interface{})
	require.Len(t, results, 3)
	assert.Equal(t, true, results[0].(map[string]interface{})["success"])
	assert.Equal(t, "Candidate already exists", results[1].(map[string]interface{})["error"])
	assert.Contains(t, results[2].(map[string]interface{})["error"], "Missing: phone")

	w = srv.doJSON(http.MethodGet, "/api/admin/candidates", srv.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeList(t, w), 1)
	assert.Contains(t, srv.store.AuditActions(), services.AuditCandidatesImported)
}

func TestBulkCreateCandidates_EmptyBatch(t *testing.T) {
	srv := newTestServer(t)

	for _, body := range []interface{}{
		map[string]interface{}{"candidates": []interface{}{}},
		map[string]interface{}{},
	} {
		w := srv.doJSON(http.MethodPost, "/api/admin/candidates/bulk", srv.adminToken, body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		out := decode(t, w)
		assert.Equal(t, 0.0, out["total"])
		assert.Equal(t, 0.0, out["succeeded"])
		assert.Equal(t, 0.0, out["failed"])
		assert.Equal(t, []interface{}{}, out["results"])
	}
}

func TestSubmitJoiningForm(t *testing.T) {
	srv := newTestServer(t)
	_, employeeToken := srv.issueCredentials(t, "Jane Doe", "jane@x.com")

	t.Run("not multipart", func(t *testing.T) {
		w := srv.doJSON(http.MethodPost, "/api/employee/submit-joining-form", employeeToken, map[string]string{"presentCity": "Pune"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_REQUEST", decode(t, w)["code"])
	})

	t.Run("missing fields are all listed", func(t *testing.T) {
		fields := joiningFormFields()[:5]
		w := srv.doMultipart(t, http.MethodPost, "/api/employee/submit-joining-form", employeeToken, fields, joiningFormFiles())
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.Equal(t, "MISSING_FIELDS", body["code"])
		assert.Contains(t, body["fields"], "permanentAddress")
		assert.Contains(t, body["fields"], "bankIFSC")
	})

	t.Run("missing documents are all listed", func(t *testing.T) {
		w := srv.doMultipart(t, http.MethodPost, "/api/employee/submit-joining-form", employeeToken,
			joiningFormFields(), joiningFormFiles()[:4])
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.Equal(t, "MISSING_DOCUMENTS", body["code"])
		assert.Equal(t, []interface{}{"interDocument", "btechDocument"}, body["fields"])
	})

	t.Run("experience with repeated uan keeps the first", func(t *testing.T) {
		fields := append(joiningFormFields(),
			formField{"experience", `[{"companyName":"Acme","years":"2.5"}]`},
			formField{"uan", "100200300400"},
			formField{"uan", "999999999999"},
		)
		files := append(joiningFormFiles(), formFile{"experienceCertificate_0", "acme.pdf", pdfBytes})

		w := srv.doMultipart(t, http.MethodPost, "/api/employee/submit-joining-form", employeeToken, fields, files)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		jr := decode(t, w)["joiningRequest"].(map[string]interface{})
		assert.Equal(t, "100200300400", jr["bankDetails"].(map[string]interface{})["uan"])
		experience := jr["experience"].([]interface{})
		require.Len(t, experience, 1)
		assert.Equal(t, 2.5, experience[0].(map[string]interface{})["years"])
		assert.NotEmpty(t, experience[0].(map[string]interface{})["certificate"])
	})

	t.Run("second submission", func(t *testing.T) {
		w := srv.doMultipart(t, http.MethodPost, "/api/employee/submit-joining-form", employeeToken,
			joiningFormFields(), joiningFormFiles())
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Joining form already submitted", decode(t, w)["message"])
	})
}

func TestEditJoiningDetails(t *testing.T) {
	srv := newTestServer(t)
	_, employeeToken := srv.issueCredentials(t, "Jane Doe", "jane@x.com")

	w := srv.doMultipart(t, http.MethodPost, "/api/employee/submit-joining-form", employeeToken,
		joiningFormFields(), joiningFormFiles())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	before := decode(t, w)["joiningRequest"].(map[string]interface{})
	id := before["_id"].(string)

	w = srv.doMultipart(t, http.MethodPut, "/api/admin/joining-requests/"+id+"/edit-details", srv.adminToken,
		[]formField{{"presentCity", "Mysuru"}},
		[]formFile{{"idProof", "new-id.pdf", pdfBytes}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "Joining details updated successfully", body["message"])
	after := body["joiningRequest"].(map[string]interface{})
	assert.Equal(t, "Mysuru", after["presentCity"])
	assert.Equal(t, before["permanentCity"], after["permanentCity"])
	assert.Equal(t, before["addressProof"], after["addressProof"])
	assert.NotEqual(t, before["idProof"], after["idProof"])
	assert.Equal(t, "submitted", after["status"])
	assert.Contains(t, srv.store.AuditActions(), services.AuditJoiningEdited)

	t.Run("experience without UAN is rejected", func(t *testing.T) {
		w := srv.doMultipart(t, http.MethodPut, "/api/admin/joining-requests/"+id+"/edit-details", srv.adminToken,
			[]formField{{"experience", `[{"companyName": "Acme", "years": 2}]`}},
			[]formFile{{"experienceCertificate_0", "acme.pdf", pdfBytes}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "UAN_REQUIRED", decode(t, w)["code"])
	})

	t.Run("experience without certificate is rejected", func(t *testing.T) {
		w := srv.doMultipart(t, http.MethodPut, "/api/admin/joining-requests/"+id+"/edit-details", srv.adminToken,
			[]formField{{"experience", `[{"companyName": "Acme", "years": 2}]`}, {"uan", "100200300400"}}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Please upload certificate for company 1", decode(t, w)["message"])
	})

	t.Run("emergency phone is normalized", func(t *testing.T) {
		w := srv.doMultipart(t, http.MethodPut, "/api/admin/joining-requests/"+id+"/edit-details", srv.adminToken,
			[]formField{{"emergencyContactPhone", "98765 00000"}}, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		after := decode(t, w)["joiningRequest"].(map[string]interface{})
		assert.Equal(t, "9876500000", after["emergencyContactPhone"])
	})
}

func TestStatusForKind(t *testing.T) {
	tests := []struct {
		kind services.ErrorKind
		want int
	}{
		{services.KindValidation, http.StatusBadRequest},
		{services.KindDuplicate, http.StatusBadRequest},
		{services.KindInvalidState, http.StatusBadRequest},
		{services.KindToken, http.StatusBadRequest},
		{services.KindAuth, http.StatusUnauthorized},
		{services.KindForbidden, http.StatusForbidden},
		{services.KindNotFound, http.StatusNotFound},
		{services.KindDependency, http.StatusInternalServerError},
		{services.ErrorKind("mystery"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			status, _ := statusForKind(tt.kind)
			assert.Equal(t, tt.want, status)
		})
	}
}
