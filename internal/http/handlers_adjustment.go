package http

import (
	"net/http"

	"github.com/YC815/my-accounting/internal/amqp"
	"github.com/YC815/my-accounting/internal/core"
	"github.com/YC815/my-accounting/internal/services"
)

func (s *Server) handleListAdjustments(w http.ResponseWriter, r *http.Request) {
	page, err := s.ledger.ListAdjustments(r.Context(), ParseAdjustmentQuery(r.URL.Query()))
	if err != nil {
		s.fail(w, r, err, "/adjustments")
		return
	}

	s.render(w, r, http.StatusOK, pageAdjustments, adjustmentsPage{
		basePage: newBasePage(r, "調整項目", "adjustments"),
		Page:     page,
		Filter:   newFilterView(r),
		Pager:    newPager("/adjustments", r, page),
	})
}

func (s *Server) handleCreateAdjustment(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	if _, err := s.ledger.CreateAdjustment(r.Context(), ParseAdjustmentForm(r.PostForm)); err != nil {
		s.fail(w, r, err, "/")
		return
	}
	s.done(w, r, "/", services.KindAdjustment, amqp.OpCreate, "created")
}

func (s *Server) handleEditAdjustment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r, "/adjustments")
		return
	}
	adj, err := s.ledger.GetAdjustment(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "/adjustments")
		return
	}

	s.render(w, r, http.StatusOK, pageAdjustmentEdit, editPage{
		basePage: newBasePage(r, "編輯調整項目", "adjustments"),
		Form: formView{
			ID:          adj.ID.String(),
			Amount:      core.FormatAmount(adj.Amount),
			Description: adj.Description,
			Date:        adj.Date.String(),
		},
	})
}

func (s *Server) handleUpdateAdjustment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r, "/adjustments")
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	in := ParseAdjustmentForm(r.PostForm)
	if _, err := s.ledger.UpdateAdjustment(r.Context(), id, in); err != nil {
		if core.IsValidation(err) && !isHTMX(r) {
			s.render(w, r, http.StatusUnprocessableEntity, pageAdjustmentEdit, editPage{
				basePage: newBasePage(r, "編輯調整項目", "adjustments"),
				Form:     formView{ID: id.String(), Amount: in.Amount, Description: in.Description, Date: in.Date},
				Error:    validationMessage(err),
			})
			return
		}
		s.fail(w, r, err, "/adjustments")
		return
	}
	s.done(w, r, "/adjustments", services.KindAdjustment, amqp.OpUpdate, "updated")
}

func (s *Server) handleDeleteAdjustment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r, "/adjustments")
		return
	}
	if err := s.ledger.DeleteAdjustment(r.Context(), id); err != nil {
		s.fail(w, r, err, "/adjustments")
		return
	}
	s.done(w, r, "/adjustments", services.KindAdjustment, amqp.OpDelete, "deleted")
}
