package facturacion_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"estudio/features/causa"
	"estudio/features/cliente"
	"estudio/features/facturacion"
)

type MockRepository struct{ mock.Mock }

func (m *MockRepository) ListHonorarios(ctx context.Context, f facturacion.Filter) ([]facturacion.Honorario, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]facturacion.Honorario), args.Error(1)
}

func (m *MockRepository) GetHonorario(ctx context.Context, id int64) (*facturacion.Honorario, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*facturacion.Honorario), args.Error(1)
}

func (m *MockRepository) CreateHonorario(ctx context.Context, h *facturacion.Honorario) error {
	args := m.Called(ctx, h)
	if args.Error(0) == nil {
		h.ID = 1
	}
	return args.Error(0)
}

func (m *MockRepository) ListPagos(ctx context.Context, f facturacion.Filter) ([]facturacion.PagoCuota, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]facturacion.PagoCuota), args.Error(1)
}

func (m *MockRepository) CreatePago(ctx context.Context, p *facturacion.PagoCuota) (bool, error) {
	args := m.Called(ctx, p)
	if args.Error(1) == nil {
		p.ID = 1
	}
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) ListGastos(ctx context.Context) ([]facturacion.Gasto, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]facturacion.Gasto), args.Error(1)
}

func (m *MockRepository) CreateGasto(ctx context.Context, g *facturacion.Gasto) error {
	args := m.Called(ctx, g)
	if args.Error(0) == nil {
		g.ID = 1
	}
	return args.Error(0)
}

type clientesStub []cliente.Cliente

func (s clientesStub) List(context.Context) ([]cliente.Cliente, error) { return s, nil }

type causasStub []causa.Causa

func (s causasStub) List(context.Context) ([]causa.Causa, error) { return s, nil }
