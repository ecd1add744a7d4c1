package http

import (
	"net/http"

	"github.com/YC815/my-accounting/internal/amqp"
	"github.com/YC815/my-accounting/internal/core"
	"github.com/YC815/my-accounting/internal/services"
)

func (s *Server) handleListRepayments(w http.ResponseWriter, r *http.Request) {
	page, err := s.ledger.ListRepayments(r.Context(), ParseListQuery(r.URL.Query()))
	if err != nil {
		s.fail(w, r, err, "/repayments")
		return
	}

	s.render(w, r, http.StatusOK, pageRepayments, repaymentsPage{
		basePage: newBasePage(r, "還款紀錄", "repayments"),
		Page:     page,
		Filter:   newFilterView(r),
		Pager:    newPager("/repayments", r, page),
	})
}

func (s *Server) handleCreateRepayment(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	if _, err := s.ledger.CreateRepayment(r.Context(), ParseRepaymentForm(r.PostForm)); err != nil {
		s.fail(w, r, err, "/")
		return
	}
	s.done(w, r, "/", services.KindRepayment, amqp.OpCreate, "created")
}

func (s *Server) handleEditRepayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r, "/repayments")
		return
	}
	rep, err := s.ledger.GetRepayment(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "/repayments")
		return
	}

	s.render(w, r, http.StatusOK, pageRepaymentEdit, editPage{
		basePage: newBasePage(r, "編輯還款", "repayments"),
		Form: formView{
			ID:     rep.ID.String(),
			Amount: core.FormatAmount(rep.Amount),
			Date:   rep.Date.String(),
		},
	})
}

func (s *Server) handleUpdateRepayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r, "/repayments")
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	in := ParseRepaymentForm(r.PostForm)
	if _, err := s.ledger.UpdateRepayment(r.Context(), id, in); err != nil {
		if core.IsValidation(err) && !isHTMX(r) {
			s.render(w, r, http.StatusUnprocessableEntity, pageRepaymentEdit, editPage{
				basePage: newBasePage(r, "編輯還款", "repayments"),
				Form:     formView{ID: id.String(), Amount: in.Amount, Date: in.Date},
				Error:    validationMessage(err),
			})
			return
		}
		s.fail(w, r, err, "/repayments")
		return
	}
	s.done(w, r, "/repayments", services.KindRepayment, amqp.OpUpdate, "updated")
}

func (s *Server) handleDeleteRepayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r, "/repayments")
		return
	}
	if err := s.ledger.DeleteRepayment(r.Context(), id); err != nil {
		s.fail(w, r, err, "/repayments")
		return
	}
	s.done(w, r, "/repayments", services.KindRepayment, amqp.OpDelete, "deleted")
}
