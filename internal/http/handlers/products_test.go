package handlers

import (
	"errors"
	"testing"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dropfy/dropfy-api/internal/service"
)

func TestProductHandlerGet404ForOtherUser(t *testing.T) {
	repos, _ := setupTestRepos(t)
	svc := service.NewProductService(repos, nil, nil, testLogger())
	handler := NewProductHandler(svc)
	product := insertProduct(t, repos, "user-1")

	_, err := handler.Get(authedContext("user-2"), &GetProductInput{ID: product.ID})
	var statusErr huma.StatusError
	if !errors.As(err, &statusErr) || statusErr.GetStatus() != 404 {
		t.Errorf("Get() error = %v, want 404", err)
	}
}

func TestProductHandlerUpdate(t *testing.T) {
	repos, _ := setupTestRepos(t)
	svc := service.NewProductService(repos, nil, nil, testLogger())
	handler := NewProductHandler(svc)
	product := insertProduct(t, repos, "user-1")

	title := "Renamed"
	input := &UpdateProductInput{ID: product.ID}
	input.Body.Title = &title

	out, err := handler.Update(authedContext("user-1"), input)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if out.Body.Product.Title != "Renamed" {
		t.Errorf("title = %q, want Renamed", out.Body.Product.Title)
	}
	if out.Body.Product.Price != "19.99" {
		t.Errorf("price = %q, untouched fields must survive", out.Body.Product.Price)
	}
}

func TestProductHandlerListPagination(t *testing.T) {
	repos, _ := setupTestRepos(t)
	svc := service.NewProductService(repos, nil, nil, testLogger())
	handler := NewProductHandler(svc)
	for i := 0; i < 3; i++ {
		insertProduct(t, repos, "user-1")
	}

	out, err := handler.List(authedContext("user-1"), &ListProductsInput{Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(out.Body.Products) != 2 {
		t.Errorf("len(products) = %d, want 2", len(out.Body.Products))
	}
	if out.Body.Total != 3 {
		t.Errorf("total = %d, want 3", out.Body.Total)
	}
}

func TestProductHandlerDelete(t *testing.T) {
	repos, _ := setupTestRepos(t)
	svc := service.NewProductService(repos, nil, nil, testLogger())
	handler := NewProductHandler(svc)
	product := insertProduct(t, repos, "user-1")

	if _, err := handler.Delete(authedContext("user-1"), &GetProductInput{ID: product.ID}); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	_, err := handler.Get(authedContext("user-1"), &GetProductInput{ID: product.ID})
	var statusErr huma.StatusError
	if !errors.As(err, &statusErr) || statusErr.GetStatus() != 404 {
		t.Errorf("Get() after delete error = %v, want 404", err)
	}
}
