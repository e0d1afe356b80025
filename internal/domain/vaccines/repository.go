package vaccines

import "context"

// Repository guarda la definición y las filas de su esquema (intervalos, frecuencia
// de rutina o marca condicional) en una misma transacción.
type Repository interface {
	List(ctx context.Context) ([]VaccineDefinition, error)
	GetByID(ctx context.Context, id string) (VaccineDefinition, error)
	Create(ctx context.Context, v VaccineDefinition) (VaccineDefinition, error)
	// Update reemplaza el esquema. Las filas de previous (y cualquier fila de otro
	// tipo) se borran antes de escribir las nuevas, dentro de la misma transacción.
	Update(ctx context.Context, v VaccineDefinition, previous Type) (VaccineDefinition, error)
	Delete(ctx context.Context, id string) error
}
