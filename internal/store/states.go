package store

import "github.com/agbanzy/pollingunits/internal/core"

// NigerianStates lists the 36 states and the Federal Capital Territory,
// keyed by their ISO 3166-2:NG codes.
var NigerianStates = []core.State{
	{ID: "NG-AB", Name: "Abia"},
	{ID: "NG-AD", Name: "Adamawa"},
	{ID: "NG-AK", Name: "Akwa Ibom"},
	{ID: "NG-AN", Name: "Anambra"},
	{ID: "NG-BA", Name: "Bauchi"},
	{ID: "NG-BY", Name: "Bayelsa"},
	{ID: "NG-BE", Name: "Benue"},
	{ID: "NG-BO", Name: "Borno"},
	{ID: "NG-CR", Name: "Cross River"},
	{ID: "NG-DE", Name: "Delta"},
	{ID: "NG-EB", Name: "Ebonyi"},
	{ID: "NG-ED", Name: "Edo"},
	{ID: "NG-EK", Name: "Ekiti"},
	{ID: "NG-EN", Name: "Enugu"},
	{ID: "NG-FC", Name: "Federal Capital Territory"},
	{ID: "NG-GO", Name: "Gombe"},
	{ID: "NG-IM", Name: "Imo"},
	{ID: "NG-JI", Name: "Jigawa"},
	{ID: "NG-KD", Name: "Kaduna"},
	{ID: "NG-KN", Name: "Kano"},
	{ID: "NG-KT", Name: "Katsina"},
	{ID: "NG-KE", Name: "Kebbi"},
	{ID: "NG-KO", Name: "Kogi"},
	{ID: "NG-KW", Name: "Kwara"},
	{ID: "NG-LA", Name: "Lagos"},
	{ID: "NG-NA", Name: "Nasarawa"},
	{ID: "NG-NI", Name: "Niger"},
	{ID: "NG-OG", Name: "Ogun"},
	{ID: "NG-ON", Name: "Ondo"},
	{ID: "NG-OS", Name: "Osun"},
	{ID: "NG-OY", Name: "Oyo"},
	{ID: "NG-PL", Name: "Plateau"},
	{ID: "NG-RI", Name: "Rivers"},
	{ID: "NG-SO", Name: "Sokoto"},
	{ID: "NG-TA", Name: "Taraba"},
	{ID: "NG-YO", Name: "Yobe"},
	{ID: "NG-ZA", Name: "Zamfara"},
}
