package font6x8

// glyphData holds 8 row bytes per glyph for runes 0x20..0x7e, top row
// first. Only the low 6 bits of each row are used; bit 5 is the leftmost
// column. Row 7 carries descenders and otherwise stays blank so lines
// do not touch.
var glyphData = [...]byte{
	0b000000, 0b000000, 0b000000, 0b000000, 0b000000, 0b000000, 0b000000, 0b000000, // 0x20 ' '
	0b001000, 0b001000, 0b001000, 0b001000, 0b001000, 0b000000, 0b001000, 0b000000, // 0x21 '!'
	0b010100, 0b010100, 0b000000, 0b000000, 0b000000, 0b000000, 0b000000, 0b000000, // 0x22 '"'
	0b010100, 0b010100, 0b111110, 0b010100, 0b111110, 0b010100, 0b010100, 0b000000, // 0x23 '#'
	0b001000, 0b011110, 0b101000, 0b011100, 0b001010, 0b111100, 0b001000, 0b000000, // 0x24 '$'
	0b110000, 0b110010, 0b000100, 0b001000, 0b010000, 0b100110, 0b000110, 0b000000, // 0x25 '%'
	0b011000, 0b100100, 0b101000, 0b010000, 0b101010, 0b100100, 0b011010, 0b000000, // 0x26 '&'
	0b001000, 0b001000, 0b000000, 0b000000, 0b000000, 0b000000, 0b000000, 0b000000, // 0x27 '\''
	0b000100, 0b001000, 0b010000, 0b010000, 0b010000, 0b001000, 0b000100, 0b000000, // 0x28 '('
	0b010000, 0b001000, 0b000100, 0b000100, 0b000100, 0b001000, 0b010000, 0b000000, // 0x29 ')'
	0b000000, 0b001000, 0b101010, 0b011100, 0b101010, 0b001000, 0b000000, 0b000000, // 0x2a '*'
	0b000000, 0b001000, 0b001000, 0b111110, 0b001000, 0b001000, 0b000000, 0b000000, // 0x2b '+'
	0b000000, 0b000000, 0b000000, 0b000000, 0b000000, 0b001100, 0b001000, 0b010000, // 0x2c ','
	0b000000, 0b000000, 0b000000, 0b111110, 0b000000, 0b000000, 0b000000, 0b000000, // 0x2d '-'
	0b000000, 0b000000, 0b000000, 0b000000, 0b000000, 0b001100, 0b001100, 0b000000, // 0x2e '.'
	0b000010, 0b000100, 0b000100, 0b001000, 0b010000, 0b010000, 0b100000, 0b000000, // 0x2f '/'
	0b011100, 0b100010, 0b100110, 0b101010, 0b110010, 0b100010, 0b011100, 0b000000, // 0x30 '0'
	0b001000, 0b011000, 0b001000, 0b001000, 0b001000, 0b001000, 0b011100, 0b000000, // 0x31 '1'
	0b011100, 0b100010, 0b000010, 0b000100, 0b001000, 0b010000, 0b111110, 0b000000, // 0x32 '2'
	0b111110, 0b000100, 0b001000, 0b000100, 0b000010, 0b100010, 0b011100, 0b000000, // 0x33 '3'
	0b000100, 0b001100, 0b010100, 0b100100, 0b111110, 0b000100, 0b000100, 0b000000, // 0x34 '4'
	0b111110, 0b100000, 0b111100, 0b000010, 0b000010, 0b100010, 0b011100, 0b000000, // 0x35 '5'
	0b001100, 0b010000, 0b100000, 0b111100, 0b100010, 0b100010, 0b011100, 0b000000, // 0x36 '6'
	0b111110, 0b000010, 0b000100, 0b001000, 0b010000, 0b010000, 0b010000, 0b000000, // 0x37 '7'
	0b011100, 0b100010, 0b100010, 0b011100, 0b100010, 0b100010, 0b011100, 0b000000, // 0x38 '8'
	0b011100, 0b100010, 0b100010, 0b011110, 0b000010, 0b000100, 0b011000, 0b000000, // 0x39 '9'
	0b000000, 0b001100, 0b001100, 0b000000, 0b001100, 0b001100, 0b000000, 0b000000, // 0x3a ':'
	0b000000, 0b001100, 0b001100, 0b000000, 0b001100, 0b001000, 0b010000, 0b000000, // 0x3b ';'
	0b000100, 0b001000, 0b010000, 0b100000, 0b010000, 0b001000, 0b000100, 0b000000, // 0x3c '<'
	0b000000, 0b000000, 0b111110, 0b000000, 0b111110, 0b000000, 0b000000, 0b000000, // 0x3d '='
	0b010000, 0b001000, 0b000100, 0b000010, 0b000100, 0b001000, 0b010000, 0b000000, // 0x3e '>'
	0b011100, 0b100010, 0b000010, 0b000100, 0b001000, 0b000000, 0b001000, 0b000000, // 0x3f '?'
	0b011100, 0b100010, 0b000010, 0b011010, 0b101010, 0b101010, 0b011100, 0b000000, // 0x40 '@'
	0b011100, 0b100010, 0b100010, 0b111110, 0b100010, 0b100010, 0b100010, 0b000000, // 0x41 'A'
	0b111100, 0b100010, 0b100010, 0b111100, 0b100010, 0b100010, 0b111100, 0b000000, // 0x42 'B'
	0b011100, 0b100010, 0b100000, 0b100000, 0b100000, 0b100010, 0b011100, 0b000000, // 0x43 'C'
	0b111000, 0b100100, 0b100010, 0b100010, 0b100010, 0b100100, 0b111000, 0b000000, // 0x44 'D'
	0b111110, 0b100000, 0b100000, 0b111100, 0b100000, 0b100000, 0b111110, 0b000000, // 0x45 'E'
	0b111110, 0b100000, 0b100000, 0b111100, 0b100000, 0b100000, 0b100000, 0b000000, // 0x46 'F'
	0b011100, 0b100010, 0b100000, 0b101110, 0b100010, 0b100010, 0b011110, 0b000000, // 0x47 'G'
	0b100010, 0b100010, 0b100010, 0b111110, 0b100010, 0b100010, 0b100010, 0b000000, // 0x48 'H'
	0b011100, 0b001000, 0b001000, 0b001000, 0b001000, 0b001000, 0b011100, 0b000000, // 0x49 'I'
	0b001110, 0b000100, 0b000100, 0b000100, 0b000100, 0b100100, 0b011000, 0b000000, // 0x4a 'J'
	0b100010, 0b100100, 0b101000, 0b110000, 0b101000, 0b100100, 0b100010, 0b000000, // 0x4b 'K'
	0b100000, 0b100000, 0b100000, 0b100000, 0b100000, 0b100000, 0b111110, 0b000000, // 0x4c 'L'
	0b100010, 0b110110, 0b101010, 0b101010, 0b100010, 0b100010, 0b100010, 0b000000, // 0x4d 'M'
	0b100010, 0b100010, 0b110010, 0b101010, 0b100110, 0b100010, 0b100010, 0b000000, // 0x4e 'N'
	0b011100, 0b100010, 0b100010, 0b100010, 0b100010, 0b100010, 0b011100, 0b000000, // 0x4f 'O'
	0b111100, 0b100010, 0b100010, 0b111100, 0b100000, 0b100000, 0b100000, 0b000000, // 0x50 'P'
	0b011100, 0b100010, 0b100010, 0b100010, 0b101010, 0b100100, 0b011010, 0b000000, // 0x51 'Q'
	0b111100, 0b100010, 0b100010, 0b111100, 0b101000, 0b100100, 0b100010, 0b000000, // 0x52 'R'
	0b011110, 0b100000, 0b100000, 0b011100, 0b000010, 0b000010, 0b111100, 0b000000, // 0x53 'S'
	0b111110, 0b001000, 0b001000, 0b001000, 0b001000, 0b001000, 0b001000, 0b000000, // 0x54 'T'
	0b100010, 0b100010, 0b100010, 0b100010, 0b100010, 0b100010, 0b011100, 0b000000, // 0x55 'U'
	0b100010, 0b100010, 0b100010, 0b100010, 0b100010, 0b010100, 0b001000, 0b000000, // 0x56 'V'
	0b100010, 0b100010, 0b100010, 0b101010, 0b101010, 0b101010, 0b010100, 0b000000, // 0x57 'W'
	0b100010, 0b100010, 0b010100, 0b001000, 0b010100, 0b100010, 0b100010, 0b000000, // 0x58 'X'
	0b100010, 0b100010, 0b100010, 0b010100, 0b001000, 0b001000, 0b001000, 0b000000, // 0x59 'Y'
	0b111110, 0b000010, 0b000100, 0b001000, 0b010000, 0b100000, 0b111110, 0b000000, // 0x5a 'Z'
	0b011100, 0b010000, 0b010000, 0b010000, 0b010000, 0b010000, 0b011100, 0b000000, // 0x5b '['
	0b100000, 0b010000, 0b010000, 0b001000, 0b000100, 0b000100, 0b000010, 0b000000, // 0x5c '\\'
	0b011100, 0b000100, 0b000100, 0b000100, 0b000100, 0b000100, 0b011100, 0b000000, // 0x5d ']'
	0b001000, 0b010100, 0b100010, 0b000000, 0b000000, 0b000000, 0b000000, 0b000000, // 0x5e '^'
	0b000000, 0b000000, 0b000000, 0b000000, 0b000000, 0b000000, 0b111110, 0b000000, // 0x5f '_'
	0b010000, 0b001000, 0b000100, 0b000000, 0b000000, 0b000000, 0b000000, 0b000000, // 0x60 '`'
	0b000000, 0b000000, 0b011100, 0b000010, 0b011110, 0b100010, 0b011110, 0b000000, // 0x61 'a'
	0b100000, 0b100000, 0b111100, 0b100010, 0b100010, 0b100010, 0b111100, 0b000000, // 0x62 'b'
	0b000000, 0b000000, 0b011100, 0b100000, 0b100000, 0b100010, 0b011100, 0b000000, // 0x63 'c'
	0b000010, 0b000010, 0b011110, 0b100010, 0b100010, 0b100010, 0b011110, 0b000000, // 0x64 'd'
	0b000000, 0b000000, 0b011100, 0b100010, 0b111110, 0b100000, 0b011100, 0b000000, // 0x65 'e'
	0b001100, 0b010010, 0b010000, 0b111000, 0b010000, 0b010000, 0b010000, 0b000000, // 0x66 'f'
	0b000000, 0b000000, 0b011110, 0b100010, 0b100010, 0b011110, 0b000010, 0b011100, // 0x67 'g'
	0b100000, 0b100000, 0b111100, 0b100010, 0b100010, 0b100010, 0b100010, 0b000000, // 0x68 'h'
	0b001000, 0b000000, 0b011000, 0b001000, 0b001000, 0b001000, 0b011100, 0b000000, // 0x69 'i'
	0b000100, 0b000000, 0b001100, 0b000100, 0b000100, 0b000100, 0b100100, 0b011000, // 0x6a 'j'
	0b100000, 0b100000, 0b100100, 0b101000, 0b110000, 0b101000, 0b100100, 0b000000, // 0x6b 'k'
	0b011000, 0b001000, 0b001000, 0b001000, 0b001000, 0b001000, 0b011100, 0b000000, // 0x6c 'l'
	0b000000, 0b000000, 0b110100, 0b101010, 0b101010, 0b101010, 0b101010, 0b000000, // 0x6d 'm'
	0b000000, 0b000000, 0b111100, 0b100010, 0b100010, 0b100010, 0b100010, 0b000000, // 0x6e 'n'
	0b000000, 0b000000, 0b011100, 0b100010, 0b100010, 0b100010, 0b011100, 0b000000, // 0x6f 'o'
	0b000000, 0b000000, 0b111100, 0b100010, 0b100010, 0b111100, 0b100000, 0b100000, // 0x70 'p'
	0b000000, 0b000000, 0b011110, 0b100010, 0b100010, 0b011110, 0b000010, 0b000010, // 0x71 'q'
	0b000000, 0b000000, 0b101100, 0b110010, 0b100000, 0b100000, 0b100000, 0b000000, // 0x72 'r'
	0b000000, 0b000000, 0b011110, 0b100000, 0b011100, 0b000010, 0b111100, 0b000000, // 0x73 's'
	0b010000, 0b010000, 0b111000, 0b010000, 0b010000, 0b010010, 0b001100, 0b000000, // 0x74 't'
	0b000000, 0b000000, 0b100010, 0b100010, 0b100010, 0b100110, 0b011010, 0b000000, // 0x75 'u'
	0b000000, 0b000000, 0b100010, 0b100010, 0b100010, 0b010100, 0b001000, 0b000000, // 0x76 'v'
	0b000000, 0b000000, 0b100010, 0b100010, 0b101010, 0b101010, 0b010100, 0b000000, // 0x77 'w'
	0b000000, 0b000000, 0b100010, 0b010100, 0b001000, 0b010100, 0b100010, 0b000000, // 0x78 'x'
	0b000000, 0b000000, 0b100010, 0b100010, 0b100010, 0b011110, 0b000010, 0b011100, // 0x79 'y'
	0b000000, 0b000000, 0b111110, 0b000100, 0b001000, 0b010000, 0b111110, 0b000000, // 0x7a 'z'
	0b000100, 0b001000, 0b001000, 0b010000, 0b001000, 0b001000, 0b000100, 0b000000, // 0x7b '{'
	0b001000, 0b001000, 0b001000, 0b001000, 0b001000, 0b001000, 0b001000, 0b000000, // 0x7c '|'
	0b010000, 0b001000, 0b001000, 0b000100, 0b001000, 0b001000, 0b010000, 0b000000, // 0x7d '}'
	0b000000, 0b010010, 0b101100, 0b000000, 0b000000, 0b000000, 0b000000, 0b000000, // 0x7e '~'
}
