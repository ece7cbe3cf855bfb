package handlers

import (
	"net/http"

	"focuslink/pkg/auth"
	"focuslink/pkg/common"
	pkgerrors "focuslink/pkg/errors"
	"focuslink/pkg/utils"

	"go.uber.org/zap"
)

// base carries what every handler needs to answer a request
type base struct {
	errs   *pkgerrors.ErrorHandler
	logger *zap.Logger
}

func newBase(errs *pkgerrors.ErrorHandler, logger *zap.Logger) base {
	if logger == nil {
		logger = zap.NewNop()
	}
	if errs == nil {
		errs = pkgerrors.NewErrorHandler(logger, false)
	}
	return base{errs: errs, logger: logger}
}

// userID returns the authenticated caller, answering 401 when there is none
func (b base) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		b.errs.Handle(w, r, pkgerrors.NewUnauthorizedError("Unauthorized"))
		return "", false
	}
	return user.UserID, true
}

// decode parses and validates a JSON body, answering 400 on failure
func (b base) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := common.ParseJSONBody(w, r, v); err != nil {
		b.errs.Handle(w, r, err)
		return false
	}
	if err := utils.ValidateStruct(v); err != nil {
		b.errs.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return false
	}
	return true
}

func (b base) fail(w http.ResponseWriter, r *http.Request, err error) {
	b.errs.Handle(w, r, err)
}
