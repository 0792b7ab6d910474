package rbac

// Permission is a fine-grained capability. IDs follow "<categoria>.<verbo>"
// and Category is one of: productos, ventas, usuarios, sistema, reportes.
type Permission struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Permission categories.
const (
	CategoriaProductos = "productos"
	CategoriaVentas    = "ventas"
	CategoriaUsuarios  = "usuarios"
	CategoriaSistema   = "sistema"
	CategoriaReportes  = "reportes"
)

// Permission identifiers. Grouped by category.
const (
	PermProductosVer      = "productos.ver"
	PermProductosCrear    = "productos.crear"
	PermProductosEditar   = "productos.editar"
	PermProductosEliminar = "productos.eliminar"

	PermVentasVer    = "ventas.ver"
	PermVentasCrear  = "ventas.crear"
	PermVentasAnular = "ventas.anular"

	PermUsuariosVer      = "usuarios.ver"
	PermUsuariosCrear    = "usuarios.crear"
	PermUsuariosEditar   = "usuarios.editar"
	PermUsuariosEliminar = "usuarios.eliminar"

	PermSistemaConfigurar = "sistema.configurar"
	PermSistemaRespaldos  = "sistema.respaldos"

	PermReportesVer      = "reportes.ver"
	PermReportesExportar = "reportes.exportar"
)

// catalog is the immutable set of every permission the application knows.
// Every id referenced by a role profile must appear here.
var catalog = []Permission{
	{PermProductosVer, "Ver productos", "Consultar el catalogo y el detalle de productos", CategoriaProductos},
	{PermProductosCrear, "Crear productos", "Dar de alta productos e imagenes", CategoriaProductos},
	{PermProductosEditar, "Editar productos", "Modificar precios, stock y categorias", CategoriaProductos},
	{PermProductosEliminar, "Eliminar productos", "Dar de baja productos del catalogo", CategoriaProductos},

	{PermVentasVer, "Ver ventas", "Consultar ordenes y ventas registradas", CategoriaVentas},
	{PermVentasCrear, "Registrar ventas", "Registrar ventas en el punto de venta", CategoriaVentas},
	{PermVentasAnular, "Anular ventas", "Anular ordenes y ventas registradas", CategoriaVentas},

	{PermUsuariosVer, "Ver usuarios", "Consultar empleados y clientes", CategoriaUsuarios},
	{PermUsuariosCrear, "Crear usuarios", "Dar de alta empleados", CategoriaUsuarios},
	{PermUsuariosEditar, "Editar usuarios", "Modificar datos y roles de usuarios", CategoriaUsuarios},
	{PermUsuariosEliminar, "Eliminar usuarios", "Dar de baja usuarios", CategoriaUsuarios},

	{PermSistemaConfigurar, "Configurar sistema", "Modificar la configuracion general", CategoriaSistema},
	{PermSistemaRespaldos, "Respaldos", "Generar y restaurar respaldos", CategoriaSistema},

	{PermReportesVer, "Ver reportes", "Consultar reportes de ventas y stock", CategoriaReportes},
	{PermReportesExportar, "Exportar reportes", "Exportar reportes a archivos", CategoriaReportes},
}

// Catalog returns a copy of the permission catalog.
func Catalog() []Permission {
	out := make([]Permission, len(catalog))
	copy(out, catalog)
	return out
}
