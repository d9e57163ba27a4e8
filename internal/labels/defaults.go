package labels

// Default returns the built-in category table. Every category is mapped.
func Default() map[Category]Descriptor {
	return map[Category]Descriptor{
		CC:          Describe(TypeKeyword),
		CD:          Describe(TypeNumber),
		DT:          Describe(TypeKeyword, ModDocumentation),
		EX:          Describe(TypeKeyword, ModDeprecated),
		FW:          Describe(TypeString),
		IN:          Describe(TypeKeyword, ModAsync),
		JJ:          Describe(TypeType),
		JJR:         Describe(TypeType, ModModification),
		JJS:         Describe(TypeType, ModDefaultLibrary),
		MD:          Describe(TypeKeyword, ModReadonly),
		NN:          Describe(TypeType),
		NNP:         Describe(TypeType, ModDeclaration),
		NNPS:        Describe(TypeType, ModDefinition),
		NNS:         Describe(TypeType, ModStatic),
		O:           Describe(TypeComment),
		PDT:         Describe(TypeKeyword, ModAbstract),
		POS:         Describe(TypeKeyword, ModDeprecated),
		PRP:         Describe(TypeTypeParameter),
		RB:          Describe(TypeKeyword, ModModification),
		RBR:         Describe(TypeKeyword, ModAsync),
		RBS:         Describe(TypeKeyword, ModDefaultLibrary),
		RP:          Describe(TypeOperator),
		SYM:         Describe(TypeOperator, ModDocumentation),
		TO:          Describe(TypeKeyword, ModStatic),
		UH:          Describe(TypeKeyword, ModDeprecated),
		VB:          Describe(TypeFunction),
		VBD:         Describe(TypeFunction, ModModification),
		VBG:         Describe(TypeFunction, ModAsync),
		VBN:         Describe(TypeFunction, ModDefaultLibrary),
		VBP:         Describe(TypeFunction, ModReadonly),
		VBZ:         Describe(TypeFunction, ModStatic),
		WDT:         Describe(TypeKeyword, ModDocumentation),
		WP:          Describe(TypeTypeParameter),
		WRB:         Describe(TypeKeyword, ModDeprecated),
		Punctuation: Describe(TypeOperator),
	}
}
