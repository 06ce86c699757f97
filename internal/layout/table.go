package layout

// KeySlot is one physical key shared by every layout.
type KeySlot struct {
	PhysicalID string
	Row        int
	Column     int
	chars      [layoutCount]string
}

// Chars returns the raw character string the key carries in layout id.
// Two-character layouts pad single characters with spaces.
func (k KeySlot) Chars(id ID) string {
	s, err := Lookup(id)
	if err != nil {
		return ""
	}
	return k.chars[s.column]
}

// Column order: diktor, qwer, vyzov, ant, skoropis, rusphone, zubachew.
// Order matters: when a character sits on several keys, the first key wins.
var keySlots = []KeySlot{
	// Number row.
	{"2", 0, 1, [layoutCount]string{"1", "1", "ё ", "!", ".", "1!", "1!"}},
	{"3", 0, 2, [layoutCount]string{"2", "2", "7 ", "?", "ё", "2", "2\""}},
	{"4", 0, 3, [layoutCount]string{"3", "3", "5 ", "'", "ъ", "3ё", "3"}},
	{"5", 0, 4, [layoutCount]string{"4", "4", "3 ", "\"", "?", "4ё", "4;"}},
	{"6", 0, 5, [layoutCount]string{"5", "5", "1 ", "=", "!", "5ъ", "5"}},
	{"7", 0, 6, [layoutCount]string{"6", "6", "9 ", "+", "", "6ъ", "6:"}},
	{"8", 0, 7, [layoutCount]string{"7", "7", "0 ", "-", "-", "7", "7?"}},
	{"9", 0, 8, [layoutCount]string{"8", "8", "2 ", "*", "'", "8*", "8*"}},
	{"10", 0, 9, [layoutCount]string{"9", "9", "4 ", "/", "(", "9(", "9("}},
	{"11", 0, 10, [layoutCount]string{"0", "0", "6 ", "%", ")", "0)", "0)"}},
	{"12", 0, 11, [layoutCount]string{"*", "-", "8 ", "(", "-", "-", "-"}},
	{"13", 0, 12, [layoutCount]string{"=", "=", "щ ", ")", "", "ч", "=+"}},

	// Top letter row.
	{"16", 1, 1, [layoutCount]string{"ц", "й", "б ", "г", "ц", "я", "ф"}},
	{"17", 1, 2, [layoutCount]string{"ь", "ц", "ы ", "п", "ь", "в", "ы"}},
	{"18", 1, 3, [layoutCount]string{"я", "у", "о ", "р", "я", "е", "а"}},
	{"19", 1, 4, [layoutCount]string{",", "к", "ую", "д", ",", "р", "я"}},
	{"20", 1, 5, [layoutCount]string{".", "е", "ь ", "м", ".", "т", ",ъ"}},
	{"21", 1, 6, [layoutCount]string{"з", "н", "ё ", "ы", "з", "ы", "й"}},
	{"22", 1, 7, [layoutCount]string{"в", "г", "л ", "и", "в", "у", "м"}},
	{"23", 1, 8, [layoutCount]string{"к", "ш", "д ", "я", "к", "и", "р"}},
	{"24", 1, 9, [layoutCount]string{"д", "щ", "я ", "у", "д", "о", "п"}},
	{"25", 1, 10, [layoutCount]string{"ч", "з", "г ", "х", "ч", "п", "х"}},
	{"26", 1, 11, [layoutCount]string{"ш", "х", "ж ", "ц", "ш", "ш", "ц"}},
	{"27", 1, 12, [layoutCount]string{"щ", "ъ", "ц ", "ж", "щ", "щ", "щ"}},

	// Home row.
	{"30", 2, 1, [layoutCount]string{"у", "ф", "чц", "в", "у", "а", "г"}},
	{"31", 2, 2, [layoutCount]string{"и", "ы", "и ", "н", "и", "с", "и"}},
	{"32", 2, 3, [layoutCount]string{"е", "в", "еэ", "с", "е", "д", "е"}},
	{"33", 2, 4, [layoutCount]string{"о", "а", "а ", "т", "о", "ф", "о"}},
	{"34", 2, 5, [layoutCount]string{"а", "п", "  ", "л", "а", "г", "у"}},
	{"35", 2, 6, [layoutCount]string{"л", "р", "  ", "ь", "л", "х", "л"}},
	{"36", 2, 7, [layoutCount]string{"н", "о", "нщ", "о", "н", "й", "т"}},
	{"37", 2, 8, [layoutCount]string{"т", "л", "тъ", "е", "т", "к", "с"}},
	{"38", 2, 9, [layoutCount]string{"с", "д", "с ", "а", "с", "л", "н"}},
	{"39", 2, 10, [layoutCount]string{"р", "ж", "в ", "к", "р", ";:", "з"}},
	{"40", 2, 11, [layoutCount]string{"й", "э", "з ", "з", "й", "'", "ж"}},
	{"41", 0, 0, [layoutCount]string{"ё", "ё", "ю ", "", "*", "ю", "ё"}},

	// Bottom letter row.
	{"44", 3, 1, [layoutCount]string{"ф", "я", "ш ", "щ", "ф", "з", "ш"}},
	{"45", 3, 2, [layoutCount]string{"э", "ч", "х ", "й", "э", "ь", "ьъ"}},
	{"46", 3, 3, [layoutCount]string{"х", "с", "й ", "ш", "х", "ц", "ю"}},
	{"47", 3, 4, [layoutCount]string{"ы", "м", "к ", "б", "ы", "ж", ".ь"}},
	{"48", 3, 5, [layoutCount]string{"ю", "и", "  ", ",;", "ю", "б", "э"}},
	{"49", 3, 6, [layoutCount]string{"б", "т", "э ", ".:", "б", "н", "б"}},
	{"50", 3, 7, [layoutCount]string{"м", "ь", "рц", "ю", "м", "м", "д"}},
	{"51", 3, 8, [layoutCount]string{"п", "б", "м ", "э", "п", ".<", "в"}},
	{"52", 3, 9, [layoutCount]string{"г", "ю", "ф ", "ё", "г", ",>", "к"}},
	{"53", 3, 10, [layoutCount]string{"ж", ".", "п ", "ф", "ж", "/?", "ч"}},
	{"54", 3, 11, [layoutCount]string{"", "", "  ", "", "", "", ""}},

	// Space and service keys.
	{"14", 0, 0, [layoutCount]string{"ъ", "", "  ", "", "", "", ""}},
	{"15", 0, 0, [layoutCount]string{" ", "", "  ", "", "", "", ""}},
	{"28", 0, 0, [layoutCount]string{"", "", "  ", "", "", "", ""}},
	{"29", 0, 0, [layoutCount]string{"", ",", "  ", "", "", "", ""}},
	{"42", 0, 0, [layoutCount]string{"", "", "  ", "", "", "", ""}},
	{"43", 0, 0, [layoutCount]string{"", "", "ъ ", "", "", "", ""}},
	{"55", 1, 13, [layoutCount]string{"", "", "  ", "ч", "\"", "э", ""}},
	{"56", 0, 0, [layoutCount]string{"", "", "  ", "", "", "", ""}},
	{"57", 0, 0, [layoutCount]string{" ", " ", "  ", " ", " ", " ", " "}},
	{"58", 0, 0, [layoutCount]string{"", "", "  ", "", "", "", ""}},
}

// Slots returns a copy of the key table in lookup order.
func Slots() []KeySlot {
	out := make([]KeySlot, len(keySlots))
	copy(out, keySlots)
	return out
}
