package trexio

// Catalog is the fixed schema of TREXIO containers. Handles opened without
// WithSchema resolve group and field names against it.
var Catalog = NewSchema()

var (
	metadataGroup = Catalog.AddGroup("metadata")

	MetadataCodeNum        = metadataGroup.DefineDimension("code_num")
	MetadataCode           = metadataGroup.DefineStringArray("code", MetadataCodeNum.Axis())
	MetadataAuthorNum      = metadataGroup.DefineDimension("author_num")
	MetadataAuthor         = metadataGroup.DefineStringArray("author", MetadataAuthorNum.Axis())
	MetadataPackageVersion = metadataGroup.DefineString("package_version")
	MetadataDescription    = metadataGroup.DefineString("description")
)

var (
	electronGroup = Catalog.AddGroup("electron")

	ElectronUpNum = electronGroup.DefineInt("up_num")
	ElectronDnNum = electronGroup.DefineInt("dn_num")
)

var (
	nucleusGroup = Catalog.AddGroup("nucleus")

	NucleusNum        = nucleusGroup.DefineDimension("num")
	NucleusCharge     = nucleusGroup.DefineFloatArray("charge", NucleusNum.Axis())
	NucleusCoord      = nucleusGroup.DefineFloatArray("coord", NucleusNum.Axis(), Fixed(3))
	NucleusLabel      = nucleusGroup.DefineStringArray("label", NucleusNum.Axis())
	NucleusPointGroup = nucleusGroup.DefineString("point_group")
	NucleusRepulsion  = nucleusGroup.DefineFloat("repulsion")
)

var (
	basisGroup = Catalog.AddGroup("basis")

	BasisType         = basisGroup.DefineString("type")
	BasisShellNum     = basisGroup.DefineDimension("shell_num")
	BasisPrimNum      = basisGroup.DefineDimension("prim_num")
	BasisNucleusIndex = basisGroup.DefineIntArray("nucleus_index", NucleusNum.Axis())
	BasisShellAngMom  = basisGroup.DefineIntArray("shell_ang_mom", BasisShellNum.Axis())
	BasisShellFactor  = basisGroup.DefineFloatArray("shell_factor", BasisShellNum.Axis())
	BasisShellPrimNum = basisGroup.DefineIntArray("shell_prim_num", BasisShellNum.Axis())
	BasisExponent     = basisGroup.DefineFloatArray("exponent", BasisPrimNum.Axis())
	BasisCoefficient  = basisGroup.DefineFloatArray("coefficient", BasisPrimNum.Axis())
	BasisPrimFactor   = basisGroup.DefineFloatArray("prim_factor", BasisPrimNum.Axis())
)

var (
	aoGroup = Catalog.AddGroup("ao")

	AoCartesian     = aoGroup.DefineInt("cartesian")
	AoNum           = aoGroup.DefineDimension("num")
	AoShell         = aoGroup.DefineIntArray("shell", AoNum.Axis())
	AoNormalization = aoGroup.DefineFloatArray("normalization", AoNum.Axis())
)

var (
	ao1eIntGroup = Catalog.AddGroup("ao_1e_int")

	Ao1eIntOverlap         = ao1eIntGroup.DefineFloatArray("overlap", AoNum.Axis(), AoNum.Axis())
	Ao1eIntKinetic         = ao1eIntGroup.DefineFloatArray("kinetic", AoNum.Axis(), AoNum.Axis())
	Ao1eIntPotentialNE     = ao1eIntGroup.DefineFloatArray("potential_n_e", AoNum.Axis(), AoNum.Axis())
	Ao1eIntCoreHamiltonian = ao1eIntGroup.DefineFloatArray("core_hamiltonian", AoNum.Axis(), AoNum.Axis())
)

var (
	moGroup = Catalog.AddGroup("mo")

	MoType        = moGroup.DefineString("type")
	MoNum         = moGroup.DefineDimension("num")
	MoCoefficient = moGroup.DefineFloatArray("coefficient", AoNum.Axis(), MoNum.Axis())
	MoOccupation  = moGroup.DefineFloatArray("occupation", MoNum.Axis())
	MoClass       = moGroup.DefineStringArray("class", MoNum.Axis())
	MoSymmetry    = moGroup.DefineStringArray("symmetry", MoNum.Axis())
)

var (
	mo1eIntGroup = Catalog.AddGroup("mo_1e_int")

	Mo1eIntCoreHamiltonian = mo1eIntGroup.DefineFloatArray("core_hamiltonian", MoNum.Axis(), MoNum.Axis())
)

var (
	rdmGroup = Catalog.AddGroup("rdm")

	RdmOneE = rdmGroup.DefineFloatArray("one_e", MoNum.Axis(), MoNum.Axis())
)
