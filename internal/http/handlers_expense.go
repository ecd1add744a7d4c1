package http

import (
	"net/http"

	"github.com/YC815/my-accounting/internal/amqp"
	"github.com/YC815/my-accounting/internal/core"
	"github.com/YC815/my-accounting/internal/services"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, err := s.ledger.ListExpenses(ctx, ParseExpenseQuery(r.URL.Query()))
	if err != nil {
		s.fail(w, r, err, "/expenses")
		return
	}
	cats, err := s.ledger.Categories(ctx)
	if err != nil {
		s.fail(w, r, err, "/expenses")
		return
	}

	s.render(w, r, http.StatusOK, pageExpenses, expensesPage{
		basePage:   newBasePage(r, "支出流水", "expenses"),
		Page:       page,
		Filter:     newFilterView(r),
		Categories: cats,
		Pager:      newPager("/expenses", r, page),
	})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	if _, err := s.ledger.CreateExpense(r.Context(), ParseExpenseForm(r.PostForm)); err != nil {
		s.fail(w, r, err, "/")
		return
	}
	s.done(w, r, "/", services.KindExpense, amqp.OpCreate, "created")
}

func (s *Server) handleEditExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r, "/expenses")
		return
	}
	ctx := r.Context()
	e, err := s.ledger.GetExpense(ctx, id)
	if err != nil {
		s.fail(w, r, err, "/expenses")
		return
	}

	form := formView{
		ID:         e.ID.String(),
		CategoryID: e.CategoryID.String(),
		Name:       e.Name,
		Amount:     core.FormatAmount(e.Amount),
		Date:       e.Date.String(),
	}
	s.renderExpenseEdit(w, r, http.StatusOK, form, "")
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r, "/expenses")
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	in := ParseExpenseForm(r.PostForm)
	if _, err := s.ledger.UpdateExpense(r.Context(), id, in); err != nil {
		if core.IsValidation(err) && !isHTMX(r) {
			form := formView{ID: id.String(), CategoryID: in.CategoryID, Name: in.Name, Amount: in.Amount, Date: in.Date}
			s.renderExpenseEdit(w, r, http.StatusUnprocessableEntity, form, validationMessage(err))
			return
		}
		s.fail(w, r, err, "/expenses")
		return
	}
	s.done(w, r, "/expenses", services.KindExpense, amqp.OpUpdate, "updated")
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r, "/expenses")
		return
	}
	if err := s.ledger.DeleteExpense(r.Context(), id); err != nil {
		s.fail(w, r, err, "/expenses")
		return
	}
	s.done(w, r, "/expenses", services.KindExpense, amqp.OpDelete, "deleted")
}

// renderExpenseEdit offers active categories plus the record's own one, so
// an expense filed under a since-disabled category keeps its value.
func (s *Server) renderExpenseEdit(w http.ResponseWriter, r *http.Request, status int, form formView, errMsg string) {
	cats, err := s.ledger.Categories(r.Context())
	if err != nil {
		s.fail(w, r, err, "/expenses")
		return
	}
	offered := make([]core.CategoryRecord, 0, len(cats))
	for _, c := range cats {
		if c.Active || c.ID.String() == form.CategoryID {
			offered = append(offered, c)
		}
	}

	s.render(w, r, status, pageExpenseEdit, editPage{
		basePage:   newBasePage(r, "編輯支出", "expenses"),
		Form:       form,
		Categories: offered,
		Error:      errMsg,
	})
}
